package http

import "context"

type sessionID struct{}

func AttachSessionID(c context.Context, id string) context.Context {
	return context.WithValue(c, sessionID{}, id)
}

func SessionIDFromContext(c context.Context) string {
	id, _ := c.Value(sessionID{}).(string)
	return id
}
