package authbackend

import (
	"encoding/json"
	"errors"
	"fmt"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
)

// identityWire is the backend's user record. Document stores report the id
// as _id, and clubRef may arrive populated as an object.
type identityWire struct {
	ID         string          `json:"id"`
	DocID      string          `json:"_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	IsAdmin    bool            `json:"isAdmin"`
	ClubRef    json.RawMessage `json:"clubRef"`
	IsActive   *bool           `json:"isActive"`
	Department string          `json:"department"`
	Year       int             `json:"year"`
}

func identityFromObject(obj map[string]any) (domainauth.Identity, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return domainauth.Identity{}, err
	}
	var w identityWire
	if err = json.Unmarshal(raw, &w); err != nil {
		return domainauth.Identity{}, fmt.Errorf("decode identity: %w", err)
	}

	id := w.ID
	if id == "" {
		id = w.DocID
	}
	if id == "" {
		return domainauth.Identity{}, errors.New("identity has no id")
	}

	clubRef, err := decodeClubRef(w.ClubRef)
	if err != nil {
		return domainauth.Identity{}, err
	}

	active := true
	if w.IsActive != nil {
		active = *w.IsActive
	}

	return domainauth.Identity{
		ID:         id,
		Name:       w.Name,
		Email:      w.Email,
		IsAdmin:    w.IsAdmin,
		ClubRef:    clubRef,
		IsActive:   active,
		Department: w.Department,
		Year:       w.Year,
	}, nil
}

func decodeClubRef(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var ref string
	if err := json.Unmarshal(raw, &ref); err == nil {
		return &ref, nil
	}

	var obj struct {
		ID    string `json:"id"`
		DocID string `json:"_id"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode clubRef: %w", err)
	}
	if obj.ID != "" {
		return &obj.ID, nil
	}
	if obj.DocID != "" {
		return &obj.DocID, nil
	}
	return nil, errors.New("clubRef object has no id")
}
