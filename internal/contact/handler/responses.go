package handler

import "contactlink/internal/contact/models"

// IdentifyResponse is the body of a successful POST /identify.
type IdentifyResponse struct {
	Contact ContactView `json:"contact"`
}

// ContactView is the wire form of a consolidated identity.
type ContactView struct {
	PrimaryContactID    int64    `json:"primaryContactId"`
	Emails              []string `json:"emails"`
	PhoneNumbers        []string `json:"phoneNumbers"`
	SecondaryContactIDs []int64  `json:"secondaryContactIds"`
}

// NewIdentifyResponse renders an identity in the public response shape.
func NewIdentifyResponse(identity *models.Identity) IdentifyResponse {
	view := ContactView{
		PrimaryContactID:    int64(identity.PrimaryContactID),
		Emails:              nonNil(identity.Emails),
		PhoneNumbers:        nonNil(identity.PhoneNumbers),
		SecondaryContactIDs: make([]int64, 0, len(identity.SecondaryContactIDs)),
	}
	for _, id := range identity.SecondaryContactIDs {
		view.SecondaryContactIDs = append(view.SecondaryContactIDs, int64(id))
	}
	return IdentifyResponse{Contact: view}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
