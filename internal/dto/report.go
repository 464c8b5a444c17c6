package dto

import "time"

// ReportLink is returned after archiving a rendered report.
type ReportLink struct {
	StudentID   string    `json:"studentId"`
	Format      string    `json:"format"`
	Token       string    `json:"token"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
