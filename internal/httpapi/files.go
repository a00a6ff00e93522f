package httpapi

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ent0n29/botgate/internal/protocol"
)

func (s *Server) handleGroupFileList(r *http.Request, ac *authed) (any, error) {
	target, err := queryInt64(r, "target")
	if err != nil {
		return nil, err
	}
	dir := r.URL.Query().Get("dir")
	if dir == "" {
		dir = "/"
	}
	group, err := ac.Bot.Group(r.Context(), target)
	if err != nil {
		return nil, err
	}
	files, err := group.Files().List(r.Context(), dir)
	if err != nil {
		return nil, err
	}
	out := make([]protocol.RemoteFileDTO, 0, len(files))
	for _, f := range files {
		out = append(out, protocol.RemoteFileDTO{
			ID:    f.ID,
			Name:  f.Name,
			Path:  f.Path,
			IsDir: f.IsDir,
			Size:  f.Size,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return protocol.NewListRet(out), nil
}

func (s *Server) handleGroupFileRename(r *http.Request, ac *authed, req protocol.FileRenameReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.Files().Rename(r.Context(), req.ID, req.Rename)
}

func (s *Server) handleGroupFileMove(r *http.Request, ac *authed, req protocol.FileMoveReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.Files().Move(r.Context(), req.ID, req.MovePath)
}

func (s *Server) handleGroupFileDelete(r *http.Request, ac *authed, req protocol.FileDeleteReq) (any, error) {
	group, err := ac.Bot.Group(r.Context(), req.Target)
	if err != nil {
		return nil, err
	}
	return nil, group.Files().Delete(r.Context(), req.ID)
}

// handleUploadFileAndSend accepts a multipart form carrying the session
// token alongside the payload. The payload is spooled to disk immediately;
// session resolution and target lookup run while the write is in flight.
func (s *Server) handleUploadFileAndSend(r *http.Request) (any, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, invalidf("multipart form: %v", err)
	}
	token := r.FormValue("sessionKey")
	if token == "" {
		return nil, invalidf("sessionKey is required")
	}
	kind := r.FormValue("type")
	if kind == "" {
		return nil, invalidf("type is required")
	}
	if !strings.EqualFold(kind, "group") {
		return nil, invalidf("type %q is not supported", kind)
	}
	target, err := strconv.ParseInt(r.FormValue("target"), 10, 64)
	if err != nil || target <= 0 {
		return nil, invalidf("target must be a positive integer")
	}
	dir := r.FormValue("path")
	if dir == "" {
		return nil, invalidf("path is required")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, invalidf("file part is required")
	}
	defer file.Close()

	pending := s.spool.SaveAsync(header.Filename, file)
	defer func() {
		// The spool write finishes no matter how the request ends; the file
		// must not outlive the request. On a write failure SaveAsync already
		// removed its own partial file.
		if p, werr := pending.Wait(context.Background()); werr == nil {
			s.spool.Remove(p)
		}
	}()

	ac, err := s.resolveBound(token)
	if err != nil {
		return nil, err
	}
	group, err := ac.Bot.Group(r.Context(), target)
	if err != nil {
		return nil, err
	}

	path, err := pending.Wait(r.Context())
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	uploaded, err := group.Files().Upload(r.Context(), dir, header.Filename, data)
	if err != nil {
		return nil, err
	}
	return protocol.NewUploadFileRet(uploaded.ID), nil
}
