package handlers

import (
	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/models"
	"github.com/your-org/cinedex/internal/storage"
	"github.com/your-org/cinedex/pkg/dto"
)

func fileToResponse(f *models.File) dto.FileResponse {
	return dto.FileResponse{
		ID:              f.ID,
		Path:            f.Path,
		Filename:        f.Filename,
		ParentFolder:    f.ParentFolder,
		FileSizeBytes:   f.FileSizeBytes,
		DurationSeconds: f.DurationSeconds,
		Width:           f.Width,
		Height:          f.Height,
		FPS:             f.FPS,
		Codec:           f.Codec,
		AudioTracks:     f.AudioTracks,
		IndexedAt:       f.IndexedAt,
		DeletedAt:       f.DeletedAt,
		CreatedAt:       f.CreatedAt,
		VideoURL:        "/api/video/" + f.ID.String(),
	}
}

func sceneToResponse(s *models.Scene) dto.SceneResponse {
	resp := dto.SceneResponse{
		ID:           s.ID,
		FileID:       s.FileID,
		SceneIndex:   s.SceneIndex,
		StartTC:      s.StartTC,
		EndTC:        s.EndTC,
		Transcript:   s.Transcript,
		ClusterID:    s.ClusterID,
		ClusterOrder: s.ClusterOrder,
		CreatedAt:    s.CreatedAt,
	}
	if s.PosterKey != nil {
		resp.ThumbnailURL = "/api/thumbnail/" + s.ID.String()
	}
	return resp
}

func sceneDetailToResponse(d *storage.SceneDetail) dto.SceneResponse {
	resp := sceneToResponse(&d.Scene)
	file := fileToResponse(&d.File)
	resp.File = &file
	return resp
}

func faceToSceneFace(f models.Face) dto.SceneFace {
	return dto.SceneFace{
		ID:        f.ID,
		BboxX:     f.BboxX,
		BboxY:     f.BboxY,
		BboxW:     f.BboxW,
		BboxH:     f.BboxH,
		ClusterID: f.ClusterID,
	}
}

func faceToResponse(f *models.Face) dto.FaceResponse {
	return dto.FaceResponse{
		ID:           f.ID,
		SceneID:      f.SceneID,
		BboxX:        f.BboxX,
		BboxY:        f.BboxY,
		BboxW:        f.BboxW,
		BboxH:        f.BboxH,
		ClusterID:    f.ClusterID,
		ClusterOrder: f.ClusterOrder,
		ThumbnailURL: "/api/thumbnail/" + f.SceneID.String(),
	}
}

func jobToResponse(j *models.Job) dto.JobResponse {
	return dto.JobResponse{
		ID:              j.ID,
		FileID:          j.FileID,
		Status:          string(j.Status),
		QueuedAt:        j.QueuedAt,
		StartedAt:       j.StartedAt,
		CompletedAt:     j.CompletedAt,
		CurrentStage:    j.CurrentStage,
		CurrentStageNum: j.CurrentStageNum,
		TotalStages:     j.TotalStages,
		Error:           j.Error,
		RetryCount:      j.RetryCount,
	}
}

// attachFaces decorates scene responses with their detected faces.
func attachFaces(responses []dto.SceneResponse, faces map[uuid.UUID][]models.Face) {
	for i := range responses {
		for _, f := range faces[responses[i].ID] {
			responses[i].Faces = append(responses[i].Faces, faceToSceneFace(f))
		}
	}
}
