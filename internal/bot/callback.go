package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Inline keyboard callback payloads. Delete callbacks carry the stored event
// IDs as a comma-separated list.
type callbackKind int

const (
	callbackAccept callbackKind = iota
	callbackRepeat
	callbackCancel
	callbackDelete
)

type callback struct {
	kind callbackKind
	ids  []int64
}

const (
	callbackDataAccept = "accept"
	callbackDataRepeat = "repeat"
	callbackDataCancel = "cancel"
)

func parseCallback(data string) (callback, error) {
	switch data {
	case callbackDataAccept:
		return callback{kind: callbackAccept}, nil
	case callbackDataRepeat:
		return callback{kind: callbackRepeat}, nil
	case callbackDataCancel:
		return callback{kind: callbackCancel}, nil
	}

	parts := strings.Split(data, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return callback{}, fmt.Errorf("invalid callback query %q", data)
		}
		ids = append(ids, id)
	}
	return callback{kind: callbackDelete, ids: ids}, nil
}

func encodeDeleteCallback(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
