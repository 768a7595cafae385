package dto

// SearchQuery binds the GET /api/search parameters. Similarity stages
// activate when their parameter is present; metadata predicates always
// apply in SQL.
type SearchQuery struct {
	Q                  string `form:"q"`
	MatchSceneID       string `form:"match_scene_id"`
	FaceID             string `form:"face_id"`
	Transcript         string `form:"transcript"`
	TranscriptSemantic string `form:"transcript_semantic"`

	Filename    string   `form:"filename"`
	Path        string   `form:"path"`
	Codec       string   `form:"codec"`
	DurationMin *float64 `form:"duration_min"`
	DurationMax *float64 `form:"duration_max"`
	WidthMin    *int     `form:"width_min"`
	WidthMax    *int     `form:"width_max"`
	HeightMin   *int     `form:"height_min"`
	HeightMax   *int     `form:"height_max"`
	FPSMin      *float64 `form:"fps_min"`
	FPSMax      *float64 `form:"fps_max"`

	Threshold           *float64 `form:"threshold"`
	MatchThreshold      *float64 `form:"match_threshold"`
	FaceThreshold       *float64 `form:"face_threshold"`
	TranscriptThreshold *float64 `form:"transcript_threshold"`

	Limit int `form:"limit"`
}

// SearchResult is one scene surviving the search cascade. Similarity
// carries the last ranking score; face and transcript scores ride
// separately when their stages ran.
type SearchResult struct {
	SceneResponse
	Similarity           *float64 `json:"similarity,omitempty"`
	FaceSimilarity       *float64 `json:"face_similarity,omitempty"`
	TranscriptSimilarity *float64 `json:"transcript_similarity,omitempty"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}
