package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/domain/catalog"
	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

func SeedDiscipline(tb testing.TB, ctx context.Context, tx *gorm.DB, description string, path ...string) *catalog.Discipline {
	tb.Helper()
	d := catalog.FromPath(path, description)
	if err := tx.WithContext(ctx).Create(&d).Error; err != nil {
		tb.Fatalf("seed discipline: %v", err)
	}
	return &d
}

// SampleContent is a two-module syllabus with three steps.
func SampleContent() curriculum.SyllabusContent {
	return curriculum.SyllabusContent{
		Summary: "An introduction",
		Modules: []curriculum.Module{
			{
				Title: "Foundations",
				Steps: []curriculum.Step{
					{Key: "m1s1", Title: "What is it", EstimatedMinutes: 30},
					{Key: "m1s2", Title: "Core ideas", EstimatedMinutes: 45},
				},
			},
			{
				Title: "Practice",
				Steps: []curriculum.Step{
					{Key: "m2s1", Title: "Build something", EstimatedMinutes: 60},
				},
			},
		},
	}
}

func SeedSyllabus(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) *curriculum.Syllabus {
	tb.Helper()
	s := &curriculum.Syllabus{
		UserID: userID,
		Topic:  topic,
		Level:  curriculum.LevelBeginner,
	}
	s.Content = datatypes.NewJSONType(SampleContent())
	s.Grammar = datatypes.NewJSONType(curriculum.Grammar{})
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed syllabus: %v", err)
	}
	return s
}
