package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>kbchat</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 0; background: #f5f5f7; }
        .container { max-width: 720px; margin: 0 auto; padding: 1rem; display: flex; flex-direction: column; height: 100vh; box-sizing: border-box; }
        #messages { flex: 1; overflow-y: auto; display: flex; flex-direction: column; gap: .5rem; padding: .5rem 0; }
        .message { padding: .6rem .9rem; border-radius: 12px; max-width: 85%; white-space: pre-wrap; }
        .message.user { align-self: flex-end; background: #0a84ff; color: #fff; }
        .message.system { align-self: flex-start; background: #fff; border: 1px solid #ddd; }
        form { display: flex; gap: .5rem; }
        input { flex: 1; padding: .6rem; border-radius: 8px; border: 1px solid #ccc; }
        button { padding: .6rem 1rem; border-radius: 8px; border: 0; background: #0a84ff; color: #fff; }
        button:disabled { background: #9ec9ff; }
    </style>
</head>
<body>
    <div class="container">
        <header><h1>kbchat</h1></header>
        <div id="messages"></div>
        <form id="chat-form">
            <input type="text" id="chat-input" placeholder="Ask a question..." autocomplete="off">
            <button type="submit" id="send-btn" disabled>Send</button>
        </form>
    </div>

    <script>
        const messages = document.getElementById('messages');
        const input = document.getElementById('chat-input');
        const sendBtn = document.getElementById('send-btn');

        function addMessage(author, text) {
            const el = document.createElement('div');
            el.className = 'message ' + author;
            el.textContent = text;
            messages.appendChild(el);
            messages.scrollTop = messages.scrollHeight;
            return el;
        }

        input.addEventListener('input', () => {
            sendBtn.disabled = input.value.trim() === '';
        });

        document.getElementById('chat-form').addEventListener('submit', async (e) => {
            e.preventDefault();
            const query = input.value.trim();
            if (!query) return;

            input.value = '';
            sendBtn.disabled = true;
            addMessage('user', query);
            const placeholder = addMessage('system', 'Thinking…');

            try {
                const resp = await fetch('/api/chat', {
                    method: 'POST',
                    headers: { 'Content-Type': 'application/json' },
                    body: JSON.stringify({ query: query }),
                });
                const data = await resp.json();
                if (resp.ok) {
                    addMessage('system', data.answer);
                } else {
                    console.warn('Failed to send message', data.error);
                }
            } catch (err) {
                console.warn('Failed to send message', err);
            }
        });

        fetch('/api/transcript')
            .then((r) => r.json())
            .then((entries) => entries.forEach((e) => addMessage(e.author, e.text)))
            .catch(() => {});
    </script>
</body>
</html>`
