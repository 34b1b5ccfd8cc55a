package feed

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/studentworks/freelancer-service/internal/models"
)

// ContentType is the media type the rendered feed is served with.
const ContentType = "application/rss+xml; charset=utf-8"

// Build renders an RSS 2.0 document listing the given freelancers, newest
// first as supplied. baseURL is the public site root used for links.
func Build(users []models.UserResponse, baseURL string) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rss := doc.CreateElement("rss")
	rss.CreateAttr("version", "2.0")

	channel := rss.CreateElement("channel")
	channel.CreateElement("title").SetText("Student Freelancer Workplace")
	channel.CreateElement("link").SetText(baseURL)
	channel.CreateElement("description").SetText("Recently registered student freelancers")
	channel.CreateElement("lastBuildDate").SetText(time.Now().Format(time.RFC1123Z))

	for _, u := range users {
		item := channel.CreateElement("item")
		item.CreateElement("title").SetText(u.Name)
		item.CreateElement("description").SetText(describe(u))
		link := fmt.Sprintf("%s/freelancers/%d", baseURL, u.ID)
		item.CreateElement("link").SetText(link)
		guid := item.CreateElement("guid")
		guid.CreateAttr("isPermaLink", "true")
		guid.SetText(link)
		item.CreateElement("pubDate").SetText(u.CreatedAt.Format(time.RFC1123Z))
	}

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render feed: %w", err)
	}
	return out, nil
}

func describe(u models.UserResponse) string {
	switch {
	case u.Skills != nil && u.Bio != nil:
		return *u.Skills + " - " + *u.Bio
	case u.Skills != nil:
		return *u.Skills
	case u.Bio != nil:
		return *u.Bio
	default:
		return "Student freelancer profile"
	}
}
