package model

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Body      string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt Time   `json:"created_at"`
}

// Upload is a file stored by the backend file service.
type Upload struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}
