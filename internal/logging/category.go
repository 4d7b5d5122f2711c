package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General   Category = "General"
	API       Category = "API"
	Transport Category = "Transport"
	Session   Category = "Session"
	Rooms     Category = "Rooms"
	Chat      Category = "Chat"
)

const (
	// General
	Startup  SubCategory = "Startup"
	Shutdown SubCategory = "Shutdown"

	// API
	RequestResponse SubCategory = "RequestResponse"
	AuthFailure     SubCategory = "AuthFailure"

	// Transport
	Connect   SubCategory = "Connect"
	Reconnect SubCategory = "Reconnect"
	EmitDrop  SubCategory = "EmitDrop"

	// Session
	Credentials SubCategory = "Credentials"

	// Chat
	History SubCategory = "History"
	Roster  SubCategory = "Roster"
	Typing  SubCategory = "Typing"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	RoomID       ExtraKey = "RoomID"
	UserID       ExtraKey = "UserID"
	Event        ExtraKey = "Event"
	Attempt      ExtraKey = "Attempt"
	Method       ExtraKey = "Method"
	Path         ExtraKey = "Path"
	StatusCode   ExtraKey = "StatusCode"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
)
