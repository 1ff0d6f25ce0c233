package routes

import (
	"math"
	"sort"

	"github.com/rosterlab/shift-survey/model"
)

func computeStats(participants []model.Participant, responses []model.ResponseWithParticipant) model.SurveyStats {
	stats := model.SurveyStats{
		TotalParticipants: len(participants),
		TotalResponses:    len(responses),
		SubmissionsByDate: []model.DateBucket{},
	}
	if len(participants) == 0 {
		return stats
	}

	// any recorded participant counts as complete
	stats.CompletionRate = 100

	totalPrefs := 0
	for _, resp := range responses {
		totalPrefs += len(resp.PreferenceData.Preferences)
	}
	avg := float64(totalPrefs) / float64(len(participants))
	stats.AvgPreferencesPerPerson = math.Round(avg*10) / 10

	byDate := map[string]int{}
	for _, p := range participants {
		byDate[p.SubmittedAt.Format("2006-01-02")]++
	}
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		stats.SubmissionsByDate = append(stats.SubmissionsByDate, model.DateBucket{
			Date:  date,
			Count: byDate[date],
		})
	}

	return stats
}
