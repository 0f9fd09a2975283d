package models

import "strings"

// RegistrationStep is the onboarding progress of a user.
// Steps are linear: 1 → 2 → 3 → 4, never backwards.
type RegistrationStep int

const (
	StepBasicInfo    RegistrationStep = 1 // account created
	StepPersonalInfo RegistrationStep = 2 // first/last name, bio
	StepAvatar       RegistrationStep = 3 // optional avatar
	StepComplete     RegistrationStep = 4
)

// Next returns the following step, capped at StepComplete.
func (s RegistrationStep) Next() RegistrationStep {
	if s >= StepComplete {
		return StepComplete
	}
	if s < StepBasicInfo {
		return StepPersonalInfo
	}
	return s + 1
}

// IsComplete reports whether onboarding is finished.
func (s RegistrationStep) IsComplete() bool {
	return s >= StepComplete
}

func (s RegistrationStep) String() string {
	switch s {
	case StepBasicInfo:
		return "basic_info"
	case StepPersonalInfo:
		return "personal_info"
	case StepAvatar:
		return "avatar"
	case StepComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// RegistrationStatus is the response of the registration endpoints.
type RegistrationStatus struct {
	Step     RegistrationStep `json:"step"`
	StepName string           `json:"step_name"`
	Complete bool             `json:"complete"`
}

// NewRegistrationStatus builds the status view of a step.
func NewRegistrationStatus(step RegistrationStep) RegistrationStatus {
	return RegistrationStatus{
		Step:     step,
		StepName: step.String(),
		Complete: step.IsComplete(),
	}
}

// PersonalInfoRequest is the data captured at StepPersonalInfo.
type PersonalInfoRequest struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Bio       string `json:"bio" validate:"max=500"`
}

func (r *PersonalInfoRequest) Validate() error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Bio = strings.TrimSpace(r.Bio)
	return validateStruct(r)
}

// AvatarRequest is the data captured at StepAvatar. An empty URL skips the
// avatar.
type AvatarRequest struct {
	AvatarURL string `json:"avatar_url" validate:"omitempty,url,max=512"`
}

func (r *AvatarRequest) Validate() error {
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
	return validateStruct(r)
}
