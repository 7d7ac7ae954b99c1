package status

import "fmt"

// Encode maps a status to its wire code and display label.
func Encode(s PaymentStatus) (int, string) {
	switch s.kind {
	case KindInProgress:
		return CodeInProgress, LabelInProgress
	case KindSucceeded:
		return CodeSucceeded, LabelSucceeded
	case KindFailed:
		return CodeFailed, LabelFailed
	case KindDecodeError:
		return CodeFailed, LabelDecodeError
	default:
		return CodeWaiting, LabelWaiting
	}
}

// DecodeFromCode never fails: codes outside {-1, 0, 1, 2} decode to Waiting.
func DecodeFromCode(code int) PaymentStatus {
	s, err := ParseCode(code)
	if err != nil {
		return Waiting
	}
	return s
}

// DecodeFromLabel never fails: unknown labels decode to InProgress, unlike DecodeFromCode.
func DecodeFromLabel(label string) PaymentStatus {
	s, err := ParseLabel(label)
	if err != nil {
		return InProgress
	}
	return s
}

func ParseCode(code int) (PaymentStatus, error) {
	switch code {
	case CodeFailed:
		return Failed, nil
	case CodeWaiting:
		return Waiting, nil
	case CodeSucceeded:
		return Succeeded, nil
	case CodeInProgress:
		return InProgress, nil
	}
	return Waiting, fmt.Errorf("%w: code %d", ErrUnknownStatus, code)
}

// ParseLabel accepts the four canonical labels, including the empty Waiting label.
func ParseLabel(label string) (PaymentStatus, error) {
	switch label {
	case LabelWaiting:
		return Waiting, nil
	case LabelSucceeded:
		return Succeeded, nil
	case LabelFailed:
		return Failed, nil
	case LabelInProgress:
		return InProgress, nil
	}
	return InProgress, fmt.Errorf("%w: label %q", ErrUnknownStatus, label)
}

// Selectable lists the statuses an operator may commit, in picker order.
func Selectable() []PaymentStatus {
	return []PaymentStatus{Succeeded, Failed, InProgress}
}

func IsSelectable(s PaymentStatus) bool {
	switch s.kind {
	case KindSucceeded, KindFailed, KindInProgress:
		return true
	}
	return false
}
