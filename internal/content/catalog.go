package content

import "github.com/circleapp/theater/pkg/theater"

// DefaultItems is the built-in catalog.
func DefaultItems() []Item {
	return []Item{
		{
			ID:          "storytime-three-bears",
			Type:        theater.ContentVideo,
			Title:       "Goldilocks and the Three Bears",
			Description: "A read-aloud classic.",
			URL:         "/media/videos/three-bears.mp4",
			StorageKey:  "videos/three-bears.mp4",
			Duration:    412,
		},
		{
			ID:          "storytime-hungry-caterpillar",
			Type:        theater.ContentVideo,
			Title:       "The Very Hungry Caterpillar",
			Description: "Counting and colours along the way.",
			URL:         "/media/videos/hungry-caterpillar.mp4",
			StorageKey:  "videos/hungry-caterpillar.mp4",
			Duration:    298,
		},
		{
			ID:          "coloring-animals",
			Type:        theater.ContentPDF,
			Title:       "Animal Coloring Book",
			Description: "Flip through the pages together.",
			URL:         "/media/pdfs/animal-coloring.pdf",
			StorageKey:  "pdfs/animal-coloring.pdf",
			TotalPages:  12,
		},
		{
			ID:         "bedtime-stories",
			Type:       theater.ContentPDF,
			Title:      "Bedtime Stories",
			URL:        "/media/pdfs/bedtime-stories.pdf",
			StorageKey: "pdfs/bedtime-stories.pdf",
			TotalPages: 24,
		},
		{
			ID:       "sing-along-abc",
			Type:     theater.ContentYouTube,
			Title:    "ABC Sing-Along",
			VideoID:  "75p-N9YKqNo",
			Duration: 184,
		},
		{
			ID:       "ocean-animals",
			Type:     theater.ContentYouTube,
			Title:    "Ocean Animals for Kids",
			VideoID:  "Zrw8Th_Vp9A",
			Duration: 603,
		},
	}
}
