package hermes

const (
	SubjectScoresBatch     = "mrat.country.scores.batch"
	SubjectRankingsUpdated = "mrat.rankings.updated"
	SubjectExportCompleted = "mrat.export.completed"

	StreamName   = "MRAT_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectWeightsRebalanced(sessionID string) string {
	return "mrat.session." + sessionID + ".weights.rebalanced"
}

func SubjectWeightsReplaced(sessionID string) string {
	return "mrat.session." + sessionID + ".weights.replaced"
}
