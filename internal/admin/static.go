package admin

import "net/http"

func serveCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css")
	w.Write([]byte(`body{font-family:system-ui,Segoe UI,Roboto,Arial,sans-serif;margin:0;background:#fafaf7;color:#1f2328}
a{color:#1d4ed8;text-decoration:none} a:hover{text-decoration:underline}
header{padding:12px 20px;border-bottom:1px solid #e2e0da;background:#fff}
.container{max-width:1100px;margin:0 auto;padding:20px}
table{width:100%;border-collapse:collapse;border:1px solid #e2e0da;background:#fff}
th,td{padding:10px;border-bottom:1px solid #e2e0da} th{text-align:left;background:#f3f2ec}
.btn{display:inline-block;padding:8px 12px;border:1px solid #d5d3cc;background:#fff;color:#1f2328;border-radius:6px;cursor:pointer}
.btn-primary{background:#1d4ed8;border-color:#1d4ed8;color:#fff} .btn-danger{background:#b91c1c;border-color:#b91c1c;color:#fff}
input,textarea,select{width:100%;padding:8px;background:#fff;color:#1f2328;border:1px solid #d5d3cc;border-radius:6px}
.grid{display:grid;gap:16px} .cols-2{grid-template-columns:1fr 1fr}
.card{border:1px solid #e2e0da;border-radius:10px;padding:16px;background:#fff}
h1,h2,h3{margin:12px 0}
.small{opacity:.7} .mono{font-family:ui-monospace,Menlo,Consolas,monospace}
.tag{display:inline-block;padding:2px 8px;border-radius:10px;background:#eef;border:1px solid #ccd;font-size:.85em}
code,pre{background:#f3f2ec;border:1px solid #e2e0da;border-radius:8px;padding:8px;display:block;white-space:pre-wrap}`))
}

func serveJS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Write([]byte(`async function postForm(url, form){const r=await fetch(url,{method:'POST',body:form});if(r.headers.get('content-type')?.includes('application/json'))return r.json();return r.text()}
async function sendInvite(id){const f=new FormData();f.set('email',document.getElementById('invite-email').value);const res=await postForm('/admin/api/leases/'+id+'/invite',f);toast(JSON.stringify(res))}
async function assignTenant(id){const f=new FormData();f.set('email',document.getElementById('tenant-email').value);f.set('primary',document.getElementById('tenant-primary').checked?'1':'0');const res=await postForm('/admin/api/leases/'+id+'/tenants',f);toast(JSON.stringify(res))}
async function generateCharges(){const f=new FormData();const d=document.getElementById('gen-date');if(d&&d.value)f.set('date',d.value);const res=await postForm('/admin/api/charges/generate',f);toast(JSON.stringify(res))}
function toast(t){alert(t)}
`))
}
