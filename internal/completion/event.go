package completion

type EventType string

const (
	EventToken     EventType = "token"
	EventDelimiter EventType = "delimiter"
	EventPing      EventType = "ping"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// Event is one item of the typed stream sent to the caller. Data is empty for ping and done.
type Event struct {
	Type EventType
	Data string
}

func Token(text string) Event      { return Event{Type: EventToken, Data: text} }
func Delimiter(marker string) Event { return Event{Type: EventDelimiter, Data: marker} }
func Ping() Event                  { return Event{Type: EventPing} }
func Done() Event                  { return Event{Type: EventDone} }
func Error(msg string) Event       { return Event{Type: EventError, Data: msg} }

func (e Event) Terminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
