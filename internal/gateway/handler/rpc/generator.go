package rpc

import (
	"context"
	"errors"
	"log"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"springforge/internal/projectspec"
	"springforge/internal/scaffold"
)

const (
	GeneratorServiceName = "springforge.v1.GeneratorService"
	// GenerateProcedure takes and returns a google.protobuf.Struct so
	// clients can send the same free-form spec as the JSON API.
	GenerateProcedure = "/" + GeneratorServiceName + "/Generate"
)

// GeneratorHandler exposes scaffold.Service over Connect.
type GeneratorHandler struct {
	svc *scaffold.Service
}

func NewGeneratorHandler(svc *scaffold.Service) *GeneratorHandler {
	return &GeneratorHandler{svc: svc}
}

// Handler returns the route pattern and handler to mount on a mux.
func (h *GeneratorHandler) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	return GenerateProcedure, connect.NewUnaryHandler(GenerateProcedure, h.Generate, opts...)
}

func (h *GeneratorHandler) Generate(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	spec := projectspec.Spec(req.Msg.AsMap())
	if len(spec) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, projectspec.ErrEmptySpec)
	}
	res, err := h.svc.Generate(ctx, spec)
	if err != nil {
		return nil, toConnectError(err)
	}
	files := make([]any, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, f)
	}
	degraded := make([]any, 0, len(res.Degraded))
	for _, d := range res.Degraded {
		degraded = append(degraded, d)
	}
	out, err := structpb.NewStruct(map[string]any{
		"status":         "success",
		"project_name":   res.ProjectName,
		"zip_file":       res.Archive,
		"generation_id":  res.GenerationID,
		"archive_url":    res.ArchiveURL,
		"files":          files,
		"degraded":       len(res.Degraded),
		"degraded_files": degraded,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(out), nil
}

func toConnectError(err error) error {
	var e *scaffold.Error
	if !errors.As(err, &e) {
		log.Printf("rpc generate: %v", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	switch e.Kind {
	case scaffold.KindInputValidation:
		return connect.NewError(connect.CodeInvalidArgument, errors.New(e.Msg))
	case scaffold.KindFallbackExhausted:
		log.Printf("rpc generate: %v", err)
		return connect.NewError(connect.CodeUnavailable, errors.New("no generation strategy could produce every file"))
	default:
		log.Printf("rpc generate: %v", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
