package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Search goes through the innertube search endpoint directly; the
// extraction library covers metadata and streams but has no search API.
const (
	searchEndpoint    = "https://www.youtube.com/youtubei/v1/search?prettyPrint=false"
	searchClientVer   = "2.20240726.00.00"
	searchUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	searchVideoFilter = "EgIQAQ==" // restrict results to videos
)

type searchRequest struct {
	Context struct {
		Client struct {
			ClientName    string `json:"clientName"`
			ClientVersion string `json:"clientVersion"`
			HL            string `json:"hl"`
			GL            string `json:"gl"`
		} `json:"client"`
	} `json:"context"`
	Query  string `json:"query"`
	Params string `json:"params"`
}

type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID string `json:"videoId"`
	Title   struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"title"`
	Thumbnail struct {
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	OwnerText struct {
		Runs []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"ownerText"`
	ViewCountText struct {
		SimpleText string `json:"simpleText"`
	} `json:"viewCountText"`
}

// Search returns up to maxResults video summaries for a text query.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]VideoSummary, error) {
	reqBody := searchRequest{Query: query, Params: searchVideoFilter}
	reqBody.Context.Client.ClientName = "WEB"
	reqBody.Context.Client.ClientVersion = searchClientVer
	reqBody.Context.Client.HL = "en"
	reqBody.Context.Client.GL = "US"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("Origin", "https://www.youtube.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search response: %w", err)
	}
	return parseSearchResults(body, maxResults)
}

// parseSearchResults extracts videoRenderer entries from an innertube
// search response. Non-video items (shelves, ads) are skipped.
func parseSearchResults(body []byte, maxResults int) ([]VideoSummary, error) {
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("search response: %w", err)
	}

	var out []VideoSummary
	sections := parsed.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			vr := item.VideoRenderer
			if vr == nil || vr.VideoID == "" {
				continue
			}
			out = append(out, summaryFromRenderer(vr))
			if len(out) >= maxResults {
				return out, nil
			}
		}
	}
	return out, nil
}

func summaryFromRenderer(vr *videoRenderer) VideoSummary {
	s := VideoSummary{
		ID:  vr.VideoID,
		URL: WatchURL(vr.VideoID),
	}
	if len(vr.Title.Runs) > 0 {
		s.Title = vr.Title.Runs[0].Text
	}
	if n := len(vr.Thumbnail.Thumbnails); n > 0 {
		s.Thumbnail = vr.Thumbnail.Thumbnails[n-1].URL
	}
	if len(vr.OwnerText.Runs) > 0 {
		s.Author = vr.OwnerText.Runs[0].Text
	}
	s.Duration = parseClockDuration(vr.LengthText.SimpleText)
	s.DurationFormatted = FormatDuration(s.Duration)
	s.Views = parseViewCount(vr.ViewCountText.SimpleText)
	s.ViewsFormatted = FormatViews(s.Views)
	return s
}
