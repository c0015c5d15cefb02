package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Report reasons accepted by the report endpoint.
const (
	ReasonInappropriateContent = "inappropriate_content"
	ReasonHarassment           = "harassment"
	ReasonFakeProfile          = "fake_profile"
	ReasonSpam                 = "spam"
	ReasonUnderage             = "underage"
	ReasonViolence             = "violence"
	ReasonOther                = "other"
)

var reportReasons = map[string]bool{
	ReasonInappropriateContent: true,
	ReasonHarassment:           true,
	ReasonFakeProfile:          true,
	ReasonSpam:                 true,
	ReasonUnderage:             true,
	ReasonViolence:             true,
	ReasonOther:                true,
}

// ValidReportReason reports whether reason is one of the fixed options.
func ValidReportReason(reason string) bool {
	return reportReasons[reason]
}

// Report is an audit record of one user reporting another.
type Report struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReporterID     primitive.ObjectID `bson:"reporterId" json:"reporterId"`
	ReportedUserID primitive.ObjectID `bson:"reportedUserId" json:"reportedUserId"`
	Reason         string             `bson:"reason" json:"reason"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	CreatedAt      int64              `bson:"createdAt" json:"createdAt"`
}
