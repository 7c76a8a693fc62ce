package policy

func floatPtr(f float64) *float64 { return &f }

// PresetArchiveExpiredPromotions proposes archiving promotional email whose
// offer has already expired.
func PresetArchiveExpiredPromotions() CreateRequest {
	return CreateRequest{
		Name:     "archive-expired-promotions",
		Priority: 50,
		Condition: All(
			Eq("category", "promotions"),
			Lt("expires_at", "now"),
		),
		ActionType:          ActionArchive,
		ConfidenceThreshold: 0.5,
	}
}

// PresetQuarantineRiskyAttachments proposes quarantining attachments on
// messages the extraction layer scored as high risk.
func PresetQuarantineRiskyAttachments() CreateRequest {
	return CreateRequest{
		Name:     "quarantine-risky-attachments",
		Priority: 10,
		Condition: All(
			Gte("risk_score", 0.8),
			Neq("quarantined", true),
		),
		ActionType:          ActionQuarantineAttachment,
		ConfidenceThreshold: 0.9,
	}
}

// PresetBlockHighRiskSenders proposes blocking senders of messages with a
// near-certain risk score.
func PresetBlockHighRiskSenders() CreateRequest {
	return CreateRequest{
		Name:                "block-high-risk-senders",
		Priority:            20,
		Condition:           Gte("risk_score", 0.95),
		ActionType:          ActionBlockSender,
		ConfidenceThreshold: 0.95,
	}
}

// PresetInterviewToCalendar proposes a calendar event for interview
// invitations that carry a start time.
func PresetInterviewToCalendar() CreateRequest {
	return CreateRequest{
		Name:     "interview-to-calendar",
		Priority: 30,
		Condition: All(
			Eq("category", "interview"),
			Exists("event_start_at"),
			Gt("event_start_at", "now"),
		),
		ActionType:          ActionCreateEvent,
		ActionParams:        map[string]any{"calendar": "applications"},
		ConfidenceThreshold: 0.7,
	}
}

// PresetFollowUpStaleApplications proposes a follow-up task for application
// mail that has been sitting unanswered for two weeks.
func PresetFollowUpStaleApplications() CreateRequest {
	return CreateRequest{
		Name:     "follow-up-stale-applications",
		Priority: 40,
		Condition: All(
			Eq("category", "application"),
			Gte("age_days", 14),
		),
		ActionType:          ActionCreateTask,
		ActionParams:        map[string]any{"list": "follow-ups", "title": "Follow up on application"},
		Confidence:          floatPtr(0.8),
		ConfidenceThreshold: 0.6,
	}
}

// PresetLabelNewsletters auto-labels recognizable newsletter senders. It is
// the one preset marked auto-approve: labeling is reversible and low risk.
func PresetLabelNewsletters() CreateRequest {
	return CreateRequest{
		Name:        "label-newsletters",
		Priority:    60,
		AutoApprove: true,
		Condition: Any(
			Eq("category", "newsletter"),
			Regex("sender_domain", `(^|\.)substack\.com$`),
		),
		ActionType:          ActionLabel,
		ActionParams:        map[string]any{"label": "newsletters"},
		ConfidenceThreshold: 0.5,
	}
}

// Presets returns the built-in starter policies installed for new accounts,
// in no particular priority order. All presets are created enabled.
func Presets() []CreateRequest {
	return []CreateRequest{
		PresetQuarantineRiskyAttachments(),
		PresetBlockHighRiskSenders(),
		PresetInterviewToCalendar(),
		PresetFollowUpStaleApplications(),
		PresetArchiveExpiredPromotions(),
		PresetLabelNewsletters(),
	}
}
