package server

import (
	"testing"
	"time"
)

func TestUpdateStreamInputToUpdate(t *testing.T) {
	t.Run("empty input leaves everything unset", func(t *testing.T) {
		upd, err := updateStreamInput{Stream: "orders"}.toUpdate()
		if err != nil {
			t.Fatalf("toUpdate: %v", err)
		}
		if upd.Subjects != nil || upd.Retention != nil || upd.Discard != nil ||
			upd.Replicas != nil || upd.MaxMessages != nil || upd.MaxBytes != nil ||
			upd.MaxMsgSize != nil || upd.MaxAge != nil {
			t.Fatalf("expected all fields unset, got %+v", upd)
		}
	})

	t.Run("supplied fields carry through", func(t *testing.T) {
		maxMsgs := int64(5000)
		maxBytes := int64(1 << 20)
		maxMsgSize := int32(4096)
		in := updateStreamInput{
			Stream:      "orders",
			Subjects:    []string{"orders.>", "audit.orders"},
			Retention:   "interest",
			Discard:     "new",
			Replicas:    3,
			MaxMessages: &maxMsgs,
			MaxBytes:    &maxBytes,
			MaxMsgSize:  &maxMsgSize,
			MaxAge:      "48h",
		}
		upd, err := in.toUpdate()
		if err != nil {
			t.Fatalf("toUpdate: %v", err)
		}
		if len(upd.Subjects) != 2 || upd.Subjects[0] != "orders.>" {
			t.Fatalf("subjects = %v", upd.Subjects)
		}
		if upd.Retention == nil || *upd.Retention != "interest" {
			t.Fatalf("retention = %v", upd.Retention)
		}
		if upd.Discard == nil || *upd.Discard != "new" {
			t.Fatalf("discard = %v", upd.Discard)
		}
		if upd.Replicas == nil || *upd.Replicas != 3 {
			t.Fatalf("replicas = %v", upd.Replicas)
		}
		if upd.MaxMessages == nil || *upd.MaxMessages != 5000 {
			t.Fatalf("max messages = %v", upd.MaxMessages)
		}
		if upd.MaxBytes == nil || *upd.MaxBytes != 1<<20 {
			t.Fatalf("max bytes = %v", upd.MaxBytes)
		}
		if upd.MaxMsgSize == nil || *upd.MaxMsgSize != 4096 {
			t.Fatalf("max msg size = %v", upd.MaxMsgSize)
		}
		if upd.MaxAge == nil || *upd.MaxAge != 48*time.Hour {
			t.Fatalf("max age = %v", upd.MaxAge)
		}
	})

	t.Run("bad max age rejected", func(t *testing.T) {
		_, err := updateStreamInput{Stream: "orders", MaxAge: "yesterday"}.toUpdate()
		if err == nil {
			t.Fatal("expected error for unparsable max age")
		}
	})
}
