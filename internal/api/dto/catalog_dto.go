package dto

import (
	"time"

	"github.com/goldenticket/goldenticket/internal/domain"
)

// SubTagDTO is a second-level tag.
type SubTagDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MainTagDTO is a top-level tag with its sub-tags.
type MainTagDTO struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	SubTags []SubTagDTO `json:"sub_tags"`
}

// FAQDTO is the client-facing FAQ shape.
type FAQDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Solution    string    `json:"solution"`
	MainTag     string    `json:"main_tag"`
	SubTag      string    `json:"sub_tag"`
	Archived    bool      `json:"archived"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMainTagDTOs maps the tag catalog.
func NewMainTagDTOs(tags []domain.MainTag) []MainTagDTO {
	out := make([]MainTagDTO, 0, len(tags))
	for _, tag := range tags {
		subs := make([]SubTagDTO, 0, len(tag.SubTags))
		for _, sub := range tag.SubTags {
			subs = append(subs, SubTagDTO{ID: sub.ID, Name: sub.Name})
		}
		out = append(out, MainTagDTO{ID: tag.ID, Name: tag.Name, SubTags: subs})
	}
	return out
}

// NewFAQDTOs maps the FAQ list.
func NewFAQDTOs(faqs []domain.FAQ) []FAQDTO {
	out := make([]FAQDTO, 0, len(faqs))
	for _, faq := range faqs {
		out = append(out, FAQDTO{
			ID:          faq.ID,
			Title:       faq.Title,
			Description: faq.Description,
			Solution:    faq.Solution,
			MainTag:     faq.MainTag,
			SubTag:      faq.SubTag,
			Archived:    faq.Archived,
			UpdatedAt:   faq.UpdatedAt,
		})
	}
	return out
}
