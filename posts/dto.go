package posts

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 5
	// LastTagsLimit bounds both the posts sampled and the tags returned by LastTags.
	LastTagsLimit = 5
)

// PostRequest is the body of create and update.
type PostRequest struct {
	Title    string  `json:"title" validate:"min=3" message:"Enter the title of the post" example:"Hello, world"`
	Text     string  `json:"text" validate:"min=10" message:"Write text of the post" example:"First post, written in **markdown**."`
	Tags     TagList `json:"tags" swaggertype:"array,string" example:"go,web"`
	ImageURL *string `json:"imageUrl,omitempty" example:"/uploads/5d1c.png"`
}

// TagList decodes either a JSON array of strings or a single comma separated
// string. Blank entries are dropped.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var parts []string
	switch v := raw.(type) {
	case nil:
	case string:
		parts = strings.Split(v, ",")
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return errors.New("tags: wrong tag format")
			}
			parts = append(parts, s)
		}
	default:
		return errors.New("tags: wrong tag format")
	}

	out := make(TagList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*t = out
	return nil
}

// ListResponse is one page of posts plus the size of the whole collection.
type ListResponse struct {
	Posts      []Post `json:"posts"`
	TotalCount int64  `json:"totalCount" example:"17"`
}

// UpdateResponse wraps the post as it is after an update.
type UpdateResponse struct {
	Success     bool  `json:"success" example:"true"`
	UpdatedPost *Post `json:"updatedPost"`
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}
