package model

const (
	ShareTypeInternal   = "internal"
	ShareTypeWebsite    = "website"
	ShareTypeDirectLink = "direct_link"
)

// Share is the persistent share record. Files hold sandbox-relative paths
// of the owner; Recipients hold user ids and is populated only for
// internal shares. The record is immutable after creation.
type Share struct {
	ID           string   `json:"id"`
	OwnerID      string   `json:"owner_id"`
	ShareType    string   `json:"share_type"`
	Files        []string `json:"files"`
	PasswordHash string   `json:"-"`
	Recipients   []string `json:"recipients,omitempty"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
}

func (s *Share) HasPassword() bool {
	return s.PasswordHash != ""
}

func (s *Share) IsRecipient(userID string) bool {
	for _, id := range s.Recipients {
		if id == userID {
			return true
		}
	}
	return false
}
