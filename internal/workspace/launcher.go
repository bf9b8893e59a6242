package workspace

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/loykin/pglite/internal/extensions"
)

// launcherTemplate is the generated node launcher. Contract with the
// supervisor: remove any pre-existing socket, create the socket only once the
// server accepts connections, shut down cleanly and exit 0 on SIGINT/SIGTERM.
const launcherTemplate = `const { PGlite } = require('@electric-sql/pglite');
const { PGLiteSocketServer } = require('@electric-sql/pglite-socket');
const { unlink } = require('fs/promises');
const { existsSync } = require('fs');
{{- range .Requires }}
{{ . }}
{{- end }}

const SOCKET_PATH = '{{ .SocketPath }}';

async function cleanup() {
    if (existsSync(SOCKET_PATH)) {
        try {
            await unlink(SOCKET_PATH);
            console.log(` + "`Removed old socket at ${SOCKET_PATH}`" + `);
        } catch (err) {
            // ignore
        }
    }
}

async function shutdown(server, db, signal) {
    console.log(` + "`Received ${signal}, shutting down gracefully...`" + `);
    try {
        await server.stop();
        await db.close();
        console.log('Server stopped and database closed');
    } catch (err) {
        console.error('Error during shutdown:', err);
    }
    process.exit(0);
}

async function startServer() {
    try {
        const db = new PGlite({
            extensions: {{ .ExtensionsObject }}
        });

        await cleanup();

        const server = new PGLiteSocketServer({
            db,
            path: SOCKET_PATH,
        });
        await server.start();
        console.log(` + "`Server started on socket ${SOCKET_PATH}`" + `);

        process.on('SIGINT', () => shutdown(server, db, 'SIGINT'));
        process.on('SIGTERM', () => shutdown(server, db, 'SIGTERM'));
    } catch (err) {
        console.error('Failed to start PGlite server:', err);
        process.exit(1);
    }
}

startServer();
`

type launcherData struct {
	SocketPath       string
	Requires         []string
	ExtensionsObject string
}

// RenderLauncher produces the launcher script source for the given socket
// path and extension list. Unknown extensions are an error; config validation
// normally catches them first.
func RenderLauncher(socketPath string, exts []string) (string, error) {
	data := launcherData{SocketPath: socketPath, ExtensionsObject: "{}"}
	var fields []string
	for _, name := range exts {
		ext, ok := extensions.Lookup(name)
		if !ok {
			return "", fmt.Errorf("unsupported extension %q", name)
		}
		data.Requires = append(data.Requires,
			fmt.Sprintf("const { %s } = require('%s');", ext.Export, ext.Module))
		fields = append(fields, fmt.Sprintf("    %s: %s", name, ext.Export))
	}
	if len(fields) > 0 {
		data.ExtensionsObject = "{\n" + strings.Join(fields, ",\n") + "\n}"
	}
	tmpl, err := template.New("launcher").Parse(launcherTemplate)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
