package chat

// DefaultSessionID is used when a request does not name a session.
const DefaultSessionID = "default"
