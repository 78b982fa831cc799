package models

// ProfileForm is the self-service profile form. Role is deliberately absent.
type ProfileForm struct {
	FullName      string `json:"fullName" form:"fullName"`
	Phone         string `json:"phone" form:"phone"`
	Church        string `json:"church" form:"church"`
	MaritalStatus string `json:"maritalStatus" form:"maritalStatus"`
	Gender        string `json:"gender" form:"gender"`
	DateOfBirth   string `json:"dateOfBirth" form:"dateOfBirth"`
}

// RegisterForm is the sign-up form.
type RegisterForm struct {
	FullName    string `json:"fullName" form:"fullName" binding:"required"`
	Email       string `json:"email" form:"email" binding:"required"`
	Password    string `json:"password" form:"password" binding:"required"`
	Church      string `json:"church" form:"church"`
	DateOfBirth string `json:"dateOfBirth" form:"dateOfBirth"`
}

// LoginForm is the email/password sign-in form.
type LoginForm struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
	Return   string `json:"return" form:"return"`
}

// PrayerForm is the prayer request form.
type PrayerForm struct {
	RequestText string   `json:"requestText" form:"requestText" binding:"required"`
	IsAnonymous Checkbox `json:"isAnonymous" form:"isAnonymous"`
}

// FeedbackForm is the feedback form. EventID is optional.
type FeedbackForm struct {
	Type         string   `json:"type" form:"type" binding:"required"`
	EventID      string   `json:"eventId" form:"eventId"`
	Positives    string   `json:"positives" form:"positives"`
	Improvements string   `json:"improvements" form:"improvements"`
	Questions    string   `json:"questions" form:"questions"`
	IsAnonymous  Checkbox `json:"isAnonymous" form:"isAnonymous"`
}

// AnnouncementForm is the admin announcement form.
type AnnouncementForm struct {
	Title   string `json:"title" form:"title" binding:"required"`
	Message string `json:"message" form:"message" binding:"required"`
}

// PrayerStatusForm changes the status of one prayer request.
type PrayerStatusForm struct {
	Status PrayerStatus `json:"status" form:"status" binding:"required"`
}

// FeedbackFlagForm sets the needsResponse flag of one feedback entry.
type FeedbackFlagForm struct {
	NeedsResponse bool `json:"needsResponse" form:"needsResponse"`
}
