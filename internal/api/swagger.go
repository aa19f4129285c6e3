package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	yaml "gopkg.in/yaml.v3"
)

const swaggerCDN = "https://cdn.jsdelivr.net/npm/swagger-ui-dist@5"

// openAPIJSON converts the YAML spec for Swagger UI, which wants JSON.
func openAPIJSON() ([]byte, error) {
	data, err := openAPILoad()
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return json.Marshal(obj)
}

// ConsoleHandler serves an interactive Swagger UI with the spec inlined and
// tenant/role presets sent as dev headers or a bearer token.
func (s *Server) ConsoleHandler(w http.ResponseWriter, r *http.Request) {
	js, err := openAPIJSON()
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "OpenAPI not available", err.Error(), r.URL.Path)
		return
	}
	b64 := base64.StdEncoding.EncodeToString(js)
	html := `<!DOCTYPE html><html lang="en"><head>
    <title>Itinerary API Console</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width,initial-scale=1">
    <link rel="stylesheet" href="` + swaggerCDN + `/swagger-ui.css" />
    <style>body{margin:0} .topbar{display:none} .cfg{position:fixed;top:8px;right:8px;padding:8px;background:#fff;border:1px solid #ddd;z-index:9}</style>
    </head><body>
    <div class="cfg">
      <div><strong>Auth Presets</strong></div>
      <div><label>Tenant: <input id="tenant" value="t_demo"></label></div>
      <div><label>Role: <input id="role" value="admin"></label></div>
      <div><label>Bearer token: <input id="token" style="width:240px"></label></div>
      <button onclick="saveAuth()">Save</button>
    </div>
    <div id="swagger-ui"></div>
    <script src="` + swaggerCDN + `/swagger-ui-bundle.js"></script>
    <script src="` + swaggerCDN + `/swagger-ui-standalone-preset.js"></script>
    <script>
    const spec = JSON.parse(atob('` + b64 + `'));
    function loadAuth(){
      const t=localStorage.getItem('tenant')||''; const r=localStorage.getItem('role')||''; const k=localStorage.getItem('token')||'';
      document.getElementById('tenant').value=t; document.getElementById('role').value=r; document.getElementById('token').value=k;
      return {tenant:t, role:r, token:k};
    }
    function saveAuth(){ localStorage.setItem('tenant',document.getElementById('tenant').value); localStorage.setItem('role',document.getElementById('role').value); localStorage.setItem('token',document.getElementById('token').value); alert('Saved'); }
    loadAuth();
    SwaggerUIBundle({
        spec: spec,
        dom_id: '#swagger-ui',
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
        layout: "BaseLayout",
        requestInterceptor: (req) => {
            const p = loadAuth();
            if (p.token) { req.headers['Authorization'] = 'Bearer ' + p.token; }
            if (p.tenant) req.headers['X-Tenant-Id'] = p.tenant;
            if (p.role) req.headers['X-Role'] = p.role;
            return req;
        }
    });
    </script>
    </body></html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
