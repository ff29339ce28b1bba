package entity

type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
)

// Notice is the non-fatal inline message a screen shows after an operation.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}
