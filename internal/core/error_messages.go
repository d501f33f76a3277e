package core

// error_messages.go maps errors to user-facing messages with support codes.
//
// Codes by category:
//
//	VAL001  required field missing or invalid        (ValidationError)
//	VAL002  invalid date                             "invalid date"
//	VAL003  malformed JSON body                      "invalid request body"
//	REF001  referenced parent does not exist          (ErrParentNotFound)
//	NF001   record does not exist                     (ErrNotFound)
//	DB001   unique constraint                         "duplicate key", "unique constraint"
//	DB002   foreign key constraint                    "foreign key"
//	DB003   database unreachable                      "connection refused", "connection reset"
//	DB004   database timeout                          "timeout", "deadline exceeded"
//	SYNC001 empty batch                               (ErrEmptyBatch)
//	SYNC002 batch above the configured limit          (ErrBatchTooLarge)
//	SYNC003 all sync slots busy                       (ErrTooManySyncs)
//	SYNC004 unknown entity                            (ErrUnknownEntity)
//	RATE001 rate limited                              "rate limit"
//	ERR000  anything else
//
// Sentinel errors are matched first with errors.Is; message patterns are a
// fallback for errors that reach us as text, such as quarantine reasons.

import (
	"errors"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

// sentinelMessages is checked in order; the first errors.Is match wins.
var sentinelMessages = []sentinelMessage{
	{ErrValidation, UserMessage{
		Message: "Required field missing or invalid",
		Action:  "Check the record fields and send it again",
		Code:    "VAL001",
	}},
	{ErrParentNotFound, UserMessage{
		Message: "Referenced parent record does not exist",
		Action:  "Sync the parent record before its children",
		Code:    "REF001",
	}},
	{ErrNotFound, UserMessage{
		Message: "Record not found",
		Action:  "Verify the id is correct",
		Code:    "NF001",
	}},
	{ErrEmptyBatch, UserMessage{
		Message: "The record list is required and cannot be empty",
		Action:  "Send at least one record",
		Code:    "SYNC001",
	}},
	{ErrBatchTooLarge, UserMessage{
		Message: "Too many records in one batch",
		Action:  "Split the batch into smaller requests",
		Code:    "SYNC002",
	}},
	{ErrTooManySyncs, UserMessage{
		Message: "The server is busy with other synchronizations",
		Action:  "Please wait a moment and try again",
		Code:    "SYNC003",
	}},
	{ErrUnknownEntity, UserMessage{
		Message: "Unknown entity",
		Action:  "Use one of Escola, Turma, Aluno or Presenca",
		Code:    "SYNC004",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns are matched case-insensitively with strings.Contains.
// More specific patterns come first.
var errorPatterns = []errorPattern{
	{"parent not found", sentinelMessages[1].msg},
	{"invalid date", UserMessage{
		Message: "Invalid date format",
		Action:  "Use YYYY-MM-DD",
		Code:    "VAL002",
	}},
	{"invalid request body", UserMessage{
		Message: "The request body is not valid JSON",
		Action:  "Check the JSON syntax of the request",
		Code:    "VAL003",
	}},
	{"duplicate key", UserMessage{
		Message: "A record with the same key already exists",
		Action:  "Review the conflicting record before retrying",
		Code:    "DB001",
	}},
	{"unique constraint", UserMessage{
		Message: "A record with the same key already exists",
		Action:  "Review the conflicting record before retrying",
		Code:    "DB001",
	}},
	{"foreign key", UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Sync the parent record before its children",
		Code:    "DB002",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to database",
		Action:  "Please try again in a few moments",
		Code:    "DB003",
	}},
	{"connection reset", UserMessage{
		Message: "Database connection was interrupted",
		Action:  "Please try again",
		Code:    "DB003",
	}},
	{"deadline exceeded", UserMessage{
		Message: "Operation timed out",
		Action:  "Send a smaller batch or try again later",
		Code:    "DB004",
	}},
	{"timeout", UserMessage{
		Message: "Operation timed out",
		Action:  "Send a smaller batch or try again later",
		Code:    "DB004",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check the logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(&ParentNotFoundError{Parent: EntityAluno, ID: 9})
//	// msg.Code == "REF001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}
