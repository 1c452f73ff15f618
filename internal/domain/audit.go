package domain

import "time"

// AuditStatus tags the outcome of an audited action.
type AuditStatus string

const (
	AuditSuccess AuditStatus = "success"
	AuditWarning AuditStatus = "warning"
	AuditFailure AuditStatus = "failure"
	AuditError   AuditStatus = "error"
)

// AuditLogType groups audit entries by action family.
type AuditLogType string

const (
	AuditLogin              AuditLogType = "login"
	AuditLogout             AuditLogType = "logout"
	AuditTicketSubmit       AuditLogType = "ticket_submit"
	AuditTicketClassify     AuditLogType = "ticket_classification"
	AuditTicketFlagged      AuditLogType = "ticket_flagged"
	AuditTicketAssign       AuditLogType = "ticket_assign"
	AuditManualAssignment   AuditLogType = "manual_assignment"
	AuditTicketUpdate       AuditLogType = "ticket_update"
	AuditTicketClose        AuditLogType = "ticket_close"
	AuditPasswordChange     AuditLogType = "password_change"
	AuditWorkloadReconciled AuditLogType = "workload_reconcile"
)

// AuditLog is an immutable system_logs entry.
type AuditLog struct {
	ID        int64
	LogType   AuditLogType
	UserType  *SubjectType
	UserID    *int64
	Action    string
	Details   string
	Status    AuditStatus
	CreatedAt time.Time
}

// ModelLog records metadata of a deployed classifier artifact.
type ModelLog struct {
	ID              int64
	ModelVersion    string
	ModelType       string
	DatasetSize     int
	TrainingSamples int
	TestingSamples  int
	Accuracy        float64
	ModelFilePath   string
	Active          bool
	TrainingDate    time.Time
	DeployedAt      *time.Time
}
