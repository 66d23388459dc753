package models

import "time"

// StoredValue is one persisted value of a namespace.
type StoredValue struct {
	UpdatedAt    time.Time `json:"updated_at"`
	ValueID      string    `json:"value_id"`
	Type         string    `json:"type"`                    // Type дескриптор типа сериализованного значения
	Data         []byte    `json:"data"`                    // Data сериализованное значение
	SyncRequired bool      `json:"sync_required,omitempty"` // SyncRequired запись сделана без подтверждения сервера
}

// PeerIdentity is what a client remembers about itself between restarts.
type PeerIdentity struct {
	PeerID string `json:"peer_id"`
	Ticket string `json:"ticket"`
}
