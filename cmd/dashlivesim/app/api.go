package app

import (
	"context"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
)

// ClipInfo describes one VoD clip inside an asset loop.
type ClipInfo struct {
	Name           string `json:"name" doc:"Clip name inside the loop"`
	SegmentDurS    int    `json:"segmentDurS" doc:"Nominal segment duration in seconds"`
	WrapSeconds    int    `json:"wrapSeconds" doc:"Clip wrap duration in seconds"`
	TotalDurationS int    `json:"totalDurationS" doc:"Full clip duration in seconds"`
}

// AssetInfo describes one loopable asset.
type AssetInfo struct {
	Path            string     `json:"path" doc:"Asset path relative to the VoD root"`
	MPDName         string     `json:"mpd" doc:"MPD file name"`
	LoopDurationS   int        `json:"loopDurationS" doc:"Total loop duration in seconds"`
	Clips           []ClipInfo `json:"clips" doc:"Clips in loop order"`
	Representations []string   `json:"representations" doc:"Representation IDs"`
}

type AssetsListResponse struct {
	Body struct {
		Assets []AssetInfo `json:"assets"`
	}
}

func createListAssetsHdlr(s *Server) func(ctx context.Context, input *struct{}) (*AssetsListResponse, error) {
	return func(ctx context.Context, input *struct{}) (*AssetsListResponse, error) {
		resp := &AssetsListResponse{}
		for _, a := range s.assetMgr.assets {
			info := AssetInfo{
				Path:          a.AssetPath,
				MPDName:       a.MPDName,
				LoopDurationS: a.loopDurS(),
			}
			for _, v := range a.Vods {
				info.Clips = append(info.Clips, ClipInfo{
					Name:           v.Name,
					SegmentDurS:    v.SegmentDurS,
					WrapSeconds:    v.WrapSeconds,
					TotalDurationS: v.TotalDurationS,
				})
			}
			for _, rep := range a.Reps {
				info.Representations = append(info.Representations, rep.ID)
			}
			sort.Strings(info.Representations)
			resp.Body.Assets = append(resp.Body.Assets, info)
		}
		sort.Slice(resp.Body.Assets, func(i, j int) bool {
			return resp.Body.Assets[i].Path < resp.Body.Assets[j].Path
		})
		return resp, nil
	}
}

type rotationInput struct {
	Asset string `query:"asset" doc:"Asset path relative to the VoD root" example:"testpic/multi"`
	NowS  int    `query:"nowS" doc:"Wall-clock time in epoch seconds"`
	AstS  int    `query:"astS" doc:"availabilityStartTime in epoch seconds" example:"0"`
}

type RotationResponse struct {
	Body struct {
		Order          []string `json:"order" doc:"Clip names in rotated loop order"`
		StartFromAstS  int      `json:"startFromAstS" doc:"Start of the current loop pass relative to availabilityStartTime"`
		LoopDurationS  int      `json:"loopDurationS" doc:"Total loop duration in seconds"`
		ActiveClipName string   `json:"activeClip" doc:"Clip that owns the start of the current loop pass"`
	}
}

// createRotationHdlr exposes the loop scheduling decision for a given
// wall-clock time, mostly useful for debugging asset configurations.
func createRotationHdlr(s *Server) func(ctx context.Context, input *rotationInput) (*RotationResponse, error) {
	return func(ctx context.Context, input *rotationInput) (*RotationResponse, error) {
		a, ok := s.assetMgr.findAsset(input.Asset)
		if !ok {
			return nil, huma.Error404NotFound("unknown asset " + input.Asset)
		}
		rot, err := scheduleRotation(a.Vods, input.NowS, input.AstS)
		if err != nil {
			return nil, huma.Error400BadRequest(err.Error())
		}
		resp := &RotationResponse{}
		for _, v := range rot.vods {
			resp.Body.Order = append(resp.Body.Order, v.Name)
		}
		resp.Body.StartFromAstS = rot.startFromAstS
		resp.Body.LoopDurationS = rot.loopDurS
		resp.Body.ActiveClipName = rot.active().Name
		return resp, nil
	}
}

func createRouteAPI(s *Server) func(r chi.Router) {
	return func(r chi.Router) {
		config := huma.DefaultConfig("DASH live source simulator API", "1.0.0")
		config.Servers = []*huma.Server{
			{URL: "/api"},
		}
		config.Info.Description = `Inspection API for the simulator: list the loopable VoD assets
		and query the clip rotation for a given wall-clock time.`

		api := humachi.New(r, config)

		// Register GET /assets that lists all loopable assets
		huma.Register(api, huma.Operation{
			OperationID: "list-assets",
			Method:      http.MethodGet,
			Path:        "/assets",
			Summary:     "List the loopable VoD assets",
			Tags:        []string{"assets"},
		}, createListAssetsHdlr(s))

		// Register GET /rotation
		huma.Register(api, huma.Operation{
			OperationID: "get-rotation",
			Method:      http.MethodGet,
			Path:        "/rotation",
			Summary:     "Get the clip rotation at a given time",
			Description: "Returns the loop order and loop start for the asset at the given wall-clock time.",
			Tags:        []string{"assets"},
			Errors:      []int{400, 404},
		}, createRotationHdlr(s))
	}
}
