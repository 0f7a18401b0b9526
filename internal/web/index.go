package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Folio</title>
  <style>
    :root {
      --bg:#ffffff;
      --ink:#111111;
      --ink-mid:#4d4d4d;
      --ink-soft:#9c9c9c;
      --panel:#f6f6f6;
      --buy:#1d8a4b;
      --sell:#c23434;
    }
    * { box-sizing:border-box; }
    body {
      margin:0;
      min-height:100vh;
      display:flex;
      align-items:flex-start;
      justify-content:center;
      padding:2rem;
      background:var(--bg);
      color:var(--ink);
      font-family:'Space Mono','JetBrains Mono',monospace;
    }
    #app { width:100%; max-width:680px; }
    h1 { font-size:1.2rem; letter-spacing:.2em; }
    .panel { background:var(--panel); padding:1rem 1.25rem; margin-bottom:1rem; border:1px solid #e2e2e2; }
    .row { display:flex; justify-content:space-between; align-items:center; padding:.35rem 0; }
    .muted { color:var(--ink-soft); font-size:.8rem; }
    input[type=range] { width:55%; }
    button {
      font-family:inherit; padding:.6rem 1.2rem; border:1px solid var(--ink);
      background:var(--ink); color:var(--bg); cursor:pointer; width:100%;
    }
    button:disabled { opacity:.4; cursor:not-allowed; }
    .buy { color:var(--buy); }
    .sell { color:var(--sell); }
    pre { white-space:pre-wrap; font-size:.8rem; }
  </style>
</head>
<body>
  <div id="app">
    <h1>FOLIO</h1>
    <div class="panel">
      <div class="row"><span>Total value</span><strong id="total">$0.00</strong></div>
      <div id="holdings"></div>
    </div>
    <div class="panel">
      <div class="muted">Target allocation</div>
      <div id="sliders"></div>
    </div>
    <div class="panel">
      <div id="trades" class="muted">No rebalance needed.</div>
      <button id="rebalance" disabled>Rebalance Portfolio</button>
      <div id="status" class="muted"></div>
    </div>
  </div>
  <script>
    let state = { percent:{}, values:{}, targets:{}, total:"0.00" };

    function render() {
      document.getElementById('total').textContent = '$' + state.total;
      const holdings = document.getElementById('holdings');
      holdings.innerHTML = '';
      for (const sym of Object.keys(state.percent)) {
        const row = document.createElement('div');
        row.className = 'row';
        row.innerHTML = '<span>' + sym + '</span><span>$' + state.values[sym] +
          ' <span class="muted">' + state.percent[sym] + '% &rarr; ' + (state.targets[sym] ?? 0) + '%</span></span>';
        holdings.appendChild(row);
      }
      const sliders = document.getElementById('sliders');
      sliders.innerHTML = '';
      for (const sym of Object.keys(state.targets)) {
        const row = document.createElement('div');
        row.className = 'row';
        row.innerHTML = '<span>' + sym + ' <span class="muted">' + state.targets[sym] + '%</span></span>';
        const slider = document.createElement('input');
        slider.type = 'range'; slider.min = 0; slider.max = 100; slider.value = state.targets[sym];
        slider.onchange = () => setTarget(sym, Number(slider.value));
        row.appendChild(slider);
        sliders.appendChild(row);
      }
    }

    async function setTarget(symbol, percent) {
      const resp = await fetch('/targets', { method:'POST', body: JSON.stringify({symbol, percent}) });
      state.targets = await resp.json();
      render();
      preview();
    }

    async function preview() {
      const resp = await fetch('/rebalance/preview', { method:'POST' });
      const data = await resp.json();
      const trades = document.getElementById('trades');
      const button = document.getElementById('rebalance');
      if (!data.needed || data.trades.length === 0) {
        trades.textContent = 'No rebalance needed.';
        button.disabled = true;
        return;
      }
      trades.innerHTML = data.trades.map(t =>
        '<div class="row"><span>' + t.symbol + '</span><span class="' + t.side + '">' +
        (t.side === 'buy' ? '+' : '') + '$' + t.amount_usd + '</span></div>').join('') +
        '<div class="muted">Actual amounts may vary slightly due to slippage, price movements, and gas fees.</div>';
      button.disabled = false;
    }

    document.getElementById('rebalance').onclick = async () => {
      const button = document.getElementById('rebalance');
      const status = document.getElementById('status');
      button.disabled = true;
      status.textContent = 'Processing...';
      try {
        const resp = await fetch('/rebalance', { method:'POST' });
        if (!resp.ok) { status.textContent = await resp.text(); return; }
        const data = await resp.json();
        status.textContent = data.tx_hash ? 'Transaction submitted: ' + data.tx_hash : 'Cancelled.';
      } catch (e) {
        status.textContent = 'Failed to execute rebalance';
      } finally {
        preview();
      }
    };

    const source = new EventSource('/allocations/stream');
    source.addEventListener('allocation', (e) => {
      const u = JSON.parse(e.data);
      state = { percent: u.percent, values: u.values, targets: u.targets, total: u.total_usd };
      render();
      preview();
    });
  </script>
</body>
</html>`
