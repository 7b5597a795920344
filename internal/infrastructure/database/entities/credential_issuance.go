package entities

import "time"

// CredentialIssuance is the persisted audit row for one federated token.
// Principal and AccessKeyID are stored already redacted.
type CredentialIssuance struct {
	ID          string    `gorm:"type:varchar(40);primaryKey"`
	Principal   string    `gorm:"type:varchar(64);index"`
	Bucket      string    `gorm:"type:varchar(255);not null"`
	KeyPrefix   string    `gorm:"type:varchar(255)"`
	AccessKeyID string    `gorm:"type:varchar(64);not null"`
	IssuedAt    time.Time `gorm:"not null;index"`
	ExpiresAt   time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (CredentialIssuance) TableName() string {
	return "credential_issuances"
}
