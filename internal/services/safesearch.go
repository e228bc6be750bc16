package services

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

type SafeSearchResult struct {
	Adult    string
	Violence string
	Racy     string
	Spoof    string
	Medical  string
}

// ImageClassifier rates an object already uploaded to Cloud Storage.
type ImageClassifier interface {
	DetectSafeSearch(ctx context.Context, gcsURI string) (*SafeSearchResult, error)
}

// VisionSafeSearch runs Vision SAFE_SEARCH_DETECTION. The underlying service is
// created once and shared by all requests.
type VisionSafeSearch struct {
	svc *vision.Service
}

// NewVisionSafeSearch uses Application Default Credentials unless opts say otherwise.
func NewVisionSafeSearch(ctx context.Context, opts ...option.ClientOption) (*VisionSafeSearch, error) {
	opts = append([]option.ClientOption{option.WithScopes(vision.CloudPlatformScope)}, opts...)
	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}
	return &VisionSafeSearch{svc: svc}, nil
}

func (v *VisionSafeSearch) DetectSafeSearch(ctx context.Context, gcsURI string) (*SafeSearchResult, error) {
	req := &vision.AnnotateImageRequest{
		Image: &vision.Image{
			Source: &vision.ImageSource{GcsImageUri: gcsURI},
		},
		Features: []*vision.Feature{
			{Type: "SAFE_SEARCH_DETECTION"},
		},
	}

	resp, err := v.svc.Images.Annotate(&vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{req},
	}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if len(resp.Responses) == 0 {
		return &SafeSearchResult{}, nil
	}
	r := resp.Responses[0]
	if r.Error != nil {
		return nil, fmt.Errorf("vision: %s", r.Error.Message)
	}
	ss := r.SafeSearchAnnotation
	if ss == nil {
		return &SafeSearchResult{}, nil
	}

	return &SafeSearchResult{
		Adult:    ss.Adult,
		Violence: ss.Violence,
		Racy:     ss.Racy,
		Spoof:    ss.Spoof,
		Medical:  ss.Medical,
	}, nil
}

func likelyOrHigher(l string) bool {
	return l == "LIKELY" || l == "VERY_LIKELY"
}

// IsUnsafe ignores Spoof and Medical; memes and clinic photos are fine on a profile.
func (r *SafeSearchResult) IsUnsafe() bool {
	return likelyOrHigher(r.Adult) || likelyOrHigher(r.Violence) || likelyOrHigher(r.Racy)
}
