package grammar

// measurableVerbs are action verbs drawn from the revised Bloom taxonomy
// verb tables. Objectives should open with one of these.
var measurableVerbs = map[string]bool{}

func init() {
	for _, group := range [][]string{
		// remember
		{"define", "list", "recall", "recognize", "identify", "name", "state", "describe", "label", "match", "memorize", "outline", "reproduce", "select", "locate"},
		// understand
		{"explain", "summarize", "interpret", "classify", "compare", "contrast", "discuss", "distinguish", "estimate", "illustrate", "infer", "paraphrase", "predict", "translate", "exemplify", "restate"},
		// apply
		{"apply", "calculate", "compute", "demonstrate", "execute", "implement", "modify", "operate", "practice", "solve", "use", "perform", "sketch", "model", "derive", "prepare", "show"},
		// analyze
		{"analyze", "analyse", "categorize", "deconstruct", "diagram", "differentiate", "examine", "experiment", "investigate", "organize", "attribute", "break", "trace", "test", "relate"},
		// evaluate
		{"evaluate", "appraise", "argue", "assess", "critique", "defend", "judge", "justify", "prioritize", "rank", "rate", "recommend", "support", "validate", "verify", "measure", "check"},
		// create
		{"create", "assemble", "build", "compose", "construct", "design", "develop", "formulate", "generate", "invent", "plan", "produce", "propose", "write", "program", "author", "devise", "integrate", "synthesize"},
	} {
		for _, v := range group {
			measurableVerbs[v] = true
		}
	}
}
