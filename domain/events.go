package domain

// Events emitted by clients towards the relay.
const (
	NewTask      = "new-task"
	EditTask     = "edit-task"
	DeleteTask   = "delete-task"
	CompleteTask = "complete-task"
	OpenProject  = "open-project"
)

// Events delivered by the relay to the other members of a project room.
const (
	TaskCreated   = "task-created"
	TaskEdited    = "task-edited"
	TaskDeleted   = "task-deleted"
	TaskCompleted = "task-completed"
)

var inboundFor = map[string]string{
	NewTask:      TaskCreated,
	EditTask:     TaskEdited,
	DeleteTask:   TaskDeleted,
	CompleteTask: TaskCompleted,
}

// InboundEvent maps an outbound task event to the name other clients receive.
func InboundEvent(outbound string) (string, bool) {
	name, ok := inboundFor[outbound]
	return name, ok
}

// InboundTaskEvents lists every event the remote applier listens to.
func InboundTaskEvents() []string {
	return []string{TaskCreated, TaskEdited, TaskDeleted, TaskCompleted}
}
