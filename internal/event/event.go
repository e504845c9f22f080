package event

// Attendance is one check-in record. StudentID holds the directory's
// stable identifier, not the raw scanned input.
type Attendance struct {
	StudentID  string `json:"student_id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Timestamp  string `json:"timestamp"`
}

// Event is an operator-created event with its ordered attendee list.
// Attendee order is check-in order and is meaningful for display and export.
type Event struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Date        string       `json:"date"`
	Description string       `json:"description"`
	Attendees   []Attendance `json:"attendees"`
}

// Clone returns a deep copy so callers cannot mutate service state.
func (e Event) Clone() Event {
	out := e
	out.Attendees = make([]Attendance, len(e.Attendees))
	copy(out.Attendees, e.Attendees)
	return out
}
