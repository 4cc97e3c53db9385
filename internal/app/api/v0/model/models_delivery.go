package model

import (
	"github.com/livevlm/vlm-relay/internal/domain"
)

// Delivery is the journal record of one webhook delivery, including all retries.
type Delivery struct {
	Id      uint64 `json:"Id"`
	EventId string `json:"EventId"`
	Stream  string `json:"Stream"`
	Kind    string `json:"Kind"`
	Url     string `json:"Url"`
	Payload string `json:"Payload"`

	Status         string `json:"Status"`
	Attempts       int    `json:"Attempts"`
	MaxAttempts    int    `json:"MaxAttempts"`
	ResponseStatus int    `json:"ResponseStatus"`
	LastError      string `json:"LastError,omitempty"`

	NextAttemptAt string `json:"NextAttemptAt,omitempty"`
	CreatedAt     string `json:"CreatedAt"`
	UpdatedAt     string `json:"UpdatedAt"`
}

// NewDelivery creates a REST API Delivery from a domain Delivery.
func NewDelivery(src *domain.Delivery) Delivery {
	dst := Delivery{
		Id:             src.UniqueId,
		EventId:        string(src.EventId),
		Stream:         string(src.Stream),
		Kind:           string(src.Kind),
		Url:            src.Url,
		Payload:        src.Payload,
		Status:         string(src.Status),
		Attempts:       src.Attempts,
		MaxAttempts:    src.MaxAttempts,
		ResponseStatus: src.ResponseStatus,
		LastError:      src.LastError,
		CreatedAt:      src.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:      src.UpdatedAt.Format("2006-01-02 15:04:05"),
	}

	if src.NextAttemptAt != nil {
		dst.NextAttemptAt = src.NextAttemptAt.Format("2006-01-02 15:04:05")
	}

	return dst
}

// NewDeliveries creates a slice of REST API Delivery from a slice of domain Delivery.
func NewDeliveries(src []domain.Delivery) []Delivery {
	dst := make([]Delivery, 0, len(src))
	for i := range src {
		dst = append(dst, NewDelivery(&src[i]))
	}
	return dst
}
