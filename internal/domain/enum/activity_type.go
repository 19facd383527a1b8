package enum

// ActivityType classifies an entry in a lead's activity log.
type ActivityType string

const (
	ActivityTypeNote         ActivityType = "note"
	ActivityTypeCall         ActivityType = "call"
	ActivityTypeEmail        ActivityType = "email"
	ActivityTypeMeeting      ActivityType = "meeting"
	ActivityTypeTask         ActivityType = "task"
	ActivityTypeStatusChange ActivityType = "status_change"
)

var ActivityTypes = []ActivityType{
	ActivityTypeNote,
	ActivityTypeCall,
	ActivityTypeEmail,
	ActivityTypeMeeting,
	ActivityTypeTask,
	ActivityTypeStatusChange,
}

func (t ActivityType) String() string {
	return string(t)
}

func (t ActivityType) IsValid() bool {
	for _, v := range ActivityTypes {
		if v == t {
			return true
		}
	}
	return false
}
