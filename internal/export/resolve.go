package export

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/your-org/cinedex/internal/storage"
)

// Store resolves selected scenes to their file context.
type Store interface {
	GetSceneDetail(ctx context.Context, id uuid.UUID) (*storage.SceneDetail, error)
}

// ResolveScenes maps an ordered scene selection to EDL clips. Unknown
// scenes are skipped and reported back so the caller can surface them.
func ResolveScenes(ctx context.Context, store Store, sceneIDs []uuid.UUID) ([]Clip, []uuid.UUID, error) {
	clips := make([]Clip, 0, len(sceneIDs))
	var unresolved []uuid.UUID

	for _, id := range sceneIDs {
		detail, err := store.GetSceneDetail(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if detail == nil {
			slog.Warn("export selection references unknown scene", "scene_id", id)
			unresolved = append(unresolved, id)
			continue
		}

		fps := 0.0
		if detail.File.FPS != nil {
			fps = *detail.File.FPS
		}
		clips = append(clips, Clip{
			Name:  detail.File.Filename,
			Path:  detail.File.Path,
			Start: detail.Scene.StartTC,
			End:   detail.Scene.EndTC,
			FPS:   fps,
		})
	}
	return clips, unresolved, nil
}
