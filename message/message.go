// Package message defines the records exchanged between the scheduler,
// the measurement modules and the receipt log
package message

import (
	"bytes"
	"fmt"
)

type MessageType string

const (
	CAdmission MessageType = "Admission"
)

const prefixMSGtypeLen = 30

// MergeMessage prefixes content with its message type
func MergeMessage(msgType MessageType, content []byte) []byte {
	b := make([]byte, prefixMSGtypeLen, prefixMSGtypeLen+len(content))
	copy(b, msgType)
	return append(b, content...)
}

// SplitMessage undoes MergeMessage
func SplitMessage(message []byte) (MessageType, []byte, error) {
	if len(message) < prefixMSGtypeLen {
		return "", nil, fmt.Errorf("message of %d bytes has no type prefix", len(message))
	}
	msgType := bytes.TrimRight(message[:prefixMSGtypeLen], "\x00")
	return MessageType(msgType), message[prefixMSGtypeLen:], nil
}
