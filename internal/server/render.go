package server

import (
	"html/template"
	"net/http"
)

// pages holds every inline view RuStream renders. A real deployment would
// swap this for a templating engine and an on-disk template directory;
// spec.md explicitly scopes that engine out, so the core renders a small,
// functional set of views directly.
var pages = template.Must(template.New("pages").Parse(`
{{define "index"}}<!doctype html>
<html><head><title>RuStream</title></head><body>
<h1>RuStream</h1>
<form id="login-form">
<input id="username" placeholder="username" autocomplete="username">
<input id="password" type="password" placeholder="password" autocomplete="current-password">
<button type="submit">Log in</button>
</form>
<p id="login-error"></p>
</body></html>
{{end}}

{{define "home"}}<!doctype html>
<html><head><title>RuStream - Home</title></head><body>
<h1>Home</h1>
<p>Signed in as {{.Username}}</p>
<h2>Files</h2>
<ul>{{range .Payload.Files}}<li class="{{.Font}}"><a href="/{{.Path}}">{{.Name}}</a></li>{{end}}</ul>
<h2>Directories</h2>
<ul>{{range .Payload.Directories}}<li class="{{.Font}}"><a href="/{{.Path}}">{{.Name}}</a></li>{{end}}</ul>
<h2>My secure directories</h2>
<ul>{{range .Payload.SecuredDirectories}}<li class="{{.Font}}"><a href="/{{.Path}}">{{.Name}}</a></li>{{end}}</ul>
</body></html>
{{end}}

{{define "profile"}}<!doctype html>
<html><head><title>RuStream - Profile</title></head><body>
<h1>{{.Username}}</h1>
<p data-time-left="{{.TimeLeftSecs}}">Session expires in <span id="countdown">{{.TimeLeftSecs}}</span>s</p>
{{if .LastStreamed}}<p>Last streamed: {{.LastStreamed}}</p>{{end}}
<p>Upload limit: {{.MaxUploadSize}}</p>
</body></html>
{{end}}

{{define "stream_dir"}}<!doctype html>
<html><head><title>{{.Title}}</title></head><body>
<h1>{{.Title}}</h1>
<ul>{{range .Payload.Files}}<li class="{{.Font}}"><a href="/stream/{{.Path}}">{{.Name}}</a></li>{{end}}</ul>
<ul>{{range .Payload.Directories}}<li class="{{.Font}}"><a href="/stream/{{.Path}}">{{.Name}}</a></li>{{end}}</ul>
<ul>{{range .Payload.SecuredDirectories}}<li class="{{.Font}}"><a href="/stream/{{.Path}}">{{.Name}}</a></li>{{end}}</ul>
</body></html>
{{end}}

{{define "stream_image"}}<!doctype html>
<html><head><title>{{.Name}}</title></head><body>
<h1>{{.Name}}</h1>
<img src="/media?file={{.EncodedPath}}" alt="{{.Name}}">
</body></html>
{{end}}

{{define "stream_video"}}<!doctype html>
<html><head><title>{{.Name}}</title></head><body>
<h1>{{.Name}}</h1>
<video controls src="/media?file={{.EncodedPath}}">
{{if .TrackPath}}<track kind="subtitles" src="/track?file={{.TrackPath}}" default>{{end}}
</video>
<p>
{{if .Previous}}<a href="/stream/{{.Previous}}">previous</a>{{end}}
{{if .Next}}<a href="/stream/{{.Next}}">next</a>{{end}}
</p>
</body></html>
{{end}}

{{define "upload"}}<!doctype html>
<html><head><title>RuStream - Upload</title></head><body>
<h1>Upload</h1>
<form id="upload-form" method="post" enctype="multipart/form-data">
<input type="file" name="file" multiple>
<label><input type="checkbox" id="secure-flag"> upload to my secure directory</label>
<button type="submit">Upload</button>
</form>
<p>Maximum size per request: {{.MaxUploadSize}}</p>
</body></html>
{{end}}

{{define "logout_done"}}<!doctype html>
<html><body><h1>Logged out</h1><a href="/">Log in again</a></body></html>
{{end}}

{{define "logout_anonymous"}}<!doctype html>
<html><body><h1>Not logged in</h1><a href="/">Log in</a></body></html>
{{end}}

{{define "error"}}<!doctype html>
<html><body><h1>{{.Title}}</h1><p>{{.Detail}}</p>{{if .OfferLogin}}<a href="/">Log in</a>{{end}}</body></html>
{{end}}
`))

func render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pages.ExecuteTemplate(w, name, data)
}
