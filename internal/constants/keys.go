package constants

// Storage labels. Every persisted key is "<label>-<id>".
const (
	// IndexID is the id under which a collection index is stored, e.g. "behaviors-all".
	IndexID = "all"

	LabelBehaviors = "behaviors"
	LabelBehavior  = "behavior"

	LabelBehaviorLogs = "behavior-logs"
	LabelBehaviorLog  = "behavior-log"

	LabelReflectionQuestions = "reflection-questions"
	LabelReflectionQuestion  = "reflection-question"

	// LabelReflectionResponses holds both the global index ("-all") and the
	// per-question indexes ("-<questionId>").
	LabelReflectionResponses = "reflection-responses"
	LabelReflectionResponse  = "reflection-response"

	LabelTaskLists = "tasklists"
	LabelTaskList  = "tasklist"

	// LabelTaskListTasks is keyed by list id: "tasklist-tasks-<listId>".
	LabelTaskListTasks = "tasklist-tasks"
	// LabelTask is prefixed to the list id: "task-<listId>-<id>".
	LabelTask = "task"

	LabelActivityTypes = "activity-types"
	LabelActivityType  = "activity-type"

	LabelActivityInstances = "activity-instances"
	LabelActivityInstance  = "activity-instance"

	LabelActivityLogs = "activity-logs"
	LabelActivityLog  = "activity-log"

	LabelActivitySession = "activity-session"
	SessionID            = "current"
)
