package dashboard

// indexHTML is the self-contained dashboard page. It talks to the JSON
// API and the websocket feed on the same host, so it works wherever the
// server is bound.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Avouch Dashboard</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background: #f5f5f5; }
        .header { background: #2c3e50; color: white; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
        .header p { margin: 5px 0 0 0; color: #bdc3c7; }
        .grid { display: grid; grid-template-columns: 1fr 1fr; gap: 20px; }
        .card { background: white; padding: 20px; border-radius: 5px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .card h3 { margin-top: 0; }
        textarea { width: 100%; height: 80px; padding: 8px; font-family: monospace; box-sizing: border-box; }
        button { background: #3498db; color: white; border: none; padding: 8px 16px; border-radius: 3px; cursor: pointer; }
        .feed { max-height: 500px; overflow-y: auto; }
        .assessment { padding: 10px; margin: 5px 0; border-left: 4px solid #95a5a6; background: #ecf0f1; }
        .statement { font-family: monospace; font-size: 0.85em; word-break: break-all; }
        .level { display: inline-block; padding: 2px 10px; border-radius: 10px; color: white; font-size: 0.85em; background: #95a5a6; }
        .timestamp { font-size: 0.8em; color: #7f8c8d; }
        .result { padding: 10px; margin-top: 10px; border-radius: 3px; background: #ecf0f1; display: none; }
        .rule-row { padding: 8px; margin: 5px 0; background: #f8f9fa; border-radius: 3px; }
        .rule-row code { font-size: 0.85em; }
        .badge-snippet { font-family: monospace; font-size: 0.8em; background: #f8f9fa; padding: 8px; border-radius: 3px; word-break: break-all; margin-top: 8px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Avouch Dashboard</h1>
        <p>Disclosure statements, scored and classified in real time</p>
    </div>

    <div class="grid">
        <div class="card">
            <h3>Assess a Statement</h3>
            <textarea id="statement" placeholder="v:1;o:co;risk.deploy:high;oversight:spot"></textarea>
            <div style="margin-top: 10px;">
                <button onclick="assess()">Assess</button>
            </div>
            <div class="result" id="result"></div>

            <h3 style="margin-top: 30px;">Level Rules</h3>
            <div id="rules-list">
                <div style="color: #7f8c8d;">Loading rules...</div>
            </div>
        </div>

        <div class="card">
            <h3>Live Feed</h3>
            <div class="feed" id="feed">
                <div class="assessment">
                    <div>Waiting for assessments...</div>
                    <div class="timestamp">--</div>
                </div>
            </div>
        </div>
    </div>

    <script>
        const wsProto = location.protocol === 'https:' ? 'wss://' : 'ws://';
        const ws = new WebSocket(wsProto + location.host + '/ws');

        const cssColors = {
            'brightgreen': '#4c1',
            'green': '#97ca00',
            'yellowgreen': '#a4a61d',
            'yellow': '#dfb317',
            'orange': '#fe7d37',
            'red': '#e05d44',
            'lightgrey': '#9f9f9f',
            'blue': '#007ec6'
        };

        function levelColor(color) {
            return cssColors[color] || color || '#95a5a6';
        }

        ws.onmessage = function(event) {
            const msg = JSON.parse(event.data);
            if (msg.type === 'assessment') {
                addToFeed(msg.data);
            }
        };

        function addToFeed(a) {
            const feed = document.getElementById('feed');
            const div = document.createElement('div');
            div.className = 'assessment';
            div.style.borderLeftColor = levelColor(a.outcome.color);

            const chip = '<span class="level" style="background:' + levelColor(a.outcome.color) + '">' +
                a.outcome.level + '</span>';
            const rule = a.rule ? ' via <strong>' + a.rule + '</strong>' : ' (default)';

            div.innerHTML =
                '<div>' + chip + ' o=' + a.origin + rule + '</div>' +
                '<div class="statement">' + a.encoded + '</div>' +
                '<div class="timestamp">' + new Date(a.time).toLocaleString() + '</div>';

            feed.insertBefore(div, feed.firstChild);
            while (feed.children.length > 50) {
                feed.removeChild(feed.lastChild);
            }
        }

        function assess() {
            const statement = document.getElementById('statement').value.trim();
            const result = document.getElementById('result');
            if (!statement) {
                return;
            }

            fetch('/api/assess', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ statement: statement })
            })
            .then(response => response.json())
            .then(data => {
                result.style.display = 'block';
                if (data.status === 'ok') {
                    const a = data.data;
                    const chip = '<span class="level" style="background:' + levelColor(a.outcome.color) + '">' +
                        a.outcome.level + '</span>';
                    result.innerHTML = '<div>' + chip + ' ' + a.outcome.label +
                        (a.rule ? ' — rule <strong>' + a.rule + '</strong>' : ' — default outcome') + '</div>' +
                        '<div class="badge-snippet">' + JSON.stringify(a.context) + '</div>';
                    loadBadge(statement);
                } else {
                    result.innerHTML = '<span style="color: #e74c3c;">' + data.message + '</span>';
                }
            })
            .catch(error => {
                result.style.display = 'block';
                result.textContent = 'Error: ' + error;
            });
        }

        function loadBadge(statement) {
            fetch('/api/badge?s=' + encodeURIComponent(statement))
            .then(response => response.json())
            .then(data => {
                if (data.status !== 'ok') {
                    return;
                }
                const result = document.getElementById('result');
                const snippet = document.createElement('div');
                snippet.className = 'badge-snippet';
                snippet.innerHTML = '<img src="' + data.data.badge + '" alt="badge" /> ' + data.data.badge;
                result.appendChild(snippet);
            });
        }

        function loadRules() {
            fetch('/api/rules')
            .then(response => response.json())
            .then(data => {
                const list = document.getElementById('rules-list');
                if (data.status === 'ok' && data.data && data.data.length > 0) {
                    list.innerHTML = '';
                    data.data.forEach(rule => {
                        const div = document.createElement('div');
                        div.className = 'rule-row';
                        div.style.borderLeft = '4px solid ' + levelColor(rule.outcome.color);
                        div.innerHTML = '<strong>' + rule.name + '</strong><br>' +
                            '<code>' + rule.condition + '</code>';
                        list.appendChild(div);
                    });
                } else {
                    list.innerHTML = '<div style="color: #7f8c8d;">No level rules configured</div>';
                }
            });
        }

        window.onload = loadRules;
    </script>
</body>
</html>`
