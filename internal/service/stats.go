package service

import (
	"fmt"

	"github.com/aulaflow/aulaflow/internal/model"
)

// quizAggregates computes group and per-question statistics over all
// completed responses to a quiz.
func (s *Service) quizAggregates(quizID int64) (*model.QuizStats, []model.StudentResult, error) {
	questions, err := s.store.ListQuestions(quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	responses, err := s.store.ListCompletedResponses(quizID)
	if err != nil {
		return nil, nil, fmt.Errorf("load responses: %w", err)
	}

	perQuestion := make(map[int64]*model.QuestionStat, len(questions))
	stats := model.QuizStats{Responses: len(responses)}
	for _, q := range questions {
		perQuestion[q.ID] = &model.QuestionStat{QuestionID: q.ID, Prompt: q.Prompt}
	}

	var results []model.StudentResult
	var sumAccuracy, sumScore float64
	for _, r := range responses {
		answers, err := s.store.ListAnswers(r.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("load answers for response %d: %w", r.ID, err)
		}
		correct := 0
		for _, a := range answers {
			qs, ok := perQuestion[a.QuestionID]
			if !ok {
				continue
			}
			qs.Answered++
			if a.Correct {
				qs.Correct++
				correct++
			}
		}

		student, err := s.store.GetStudent(r.StudentID)
		if err != nil {
			return nil, nil, fmt.Errorf("load student %d: %w", r.StudentID, err)
		}
		accuracy := 0.0
		if len(questions) > 0 {
			accuracy = float64(correct) / float64(len(questions))
		}
		results = append(results, model.StudentResult{
			StudentID:   r.StudentID,
			StudentName: student.FullName,
			Correct:     correct,
			Total:       len(questions),
			Accuracy:    accuracy,
			Score:       r.Score,
		})
		sumAccuracy += accuracy
		sumScore += r.Score
	}

	if len(responses) > 0 {
		stats.AvgAccuracy = sumAccuracy / float64(len(responses))
		stats.AvgScore = sumScore / float64(len(responses))
	}
	for _, q := range questions {
		qs := perQuestion[q.ID]
		if qs.Answered > 0 {
			qs.Accuracy = float64(qs.Correct) / float64(qs.Answered)
		}
		stats.PerQuestion = append(stats.PerQuestion, *qs)
	}
	return &stats, results, nil
}
