package sqlite

const schemaSQL = `
CREATE TABLE IF NOT EXISTS checking_account (
    id          INTEGER PRIMARY KEY CHECK (id = 1),
    balance     REAL NOT NULL DEFAULT 0,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS savings_account (
    id          INTEGER PRIMARY KEY CHECK (id = 1),
    balance     REAL NOT NULL DEFAULT 0,
    target      REAL NOT NULL DEFAULT 0,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS income_schedule (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    amount         REAL NOT NULL,
    first_payday   INTEGER NOT NULL,
    second_payday  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS savings_goal (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    amount_per_paycheck  REAL NOT NULL,
    min_comfort_balance  REAL NOT NULL,
    variable_monthly     REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS credit_cards (
    id                  TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    closing_day         INTEGER NOT NULL,
    payment_days_after  INTEGER NOT NULL,
    credit_limit        REAL NOT NULL,
    current_balance     REAL NOT NULL DEFAULT 0,
    apr                 REAL NOT NULL DEFAULT 0,
    color               TEXT NOT NULL DEFAULT '',
    active              INTEGER NOT NULL DEFAULT 1,
    created_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS card_payments (
    id       TEXT PRIMARY KEY,
    card_id  TEXT NOT NULL REFERENCES credit_cards(id),
    amount   REAL NOT NULL,
    paid_on  TEXT NOT NULL,
    notes    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS fixed_expenses (
    id        TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    amount    REAL NOT NULL,
    due_day   INTEGER NOT NULL,
    category  TEXT NOT NULL DEFAULT '',
    active    INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS expense_payments (
    id          TEXT PRIMARY KEY,
    expense_id  TEXT NOT NULL REFERENCES fixed_expenses(id),
    amount      REAL NOT NULL,
    paid_on     TEXT NOT NULL,
    month       INTEGER NOT NULL,
    year        INTEGER NOT NULL,
    notes       TEXT NOT NULL DEFAULT '',
    UNIQUE (expense_id, year, month)
);

CREATE TABLE IF NOT EXISTS variable_expenses (
    id           TEXT PRIMARY KEY,
    category     TEXT NOT NULL,
    amount       REAL NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    spent_on     TEXT NOT NULL,
    card_id      TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bonus_events (
    id           TEXT PRIMARY KEY,
    amount       REAL NOT NULL,
    expected_on  TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    received     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS recommendations (
    id                TEXT PRIMARY KEY,
    amount            REAL NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    purchase_date     TEXT NOT NULL,
    status            TEXT NOT NULL DEFAULT 'pending',
    ranking           TEXT NOT NULL,
    affordability     TEXT NOT NULL DEFAULT '{}',
    plan              TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL,
    executed_at       TEXT,
    executed_card_id  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_card_payments_card ON card_payments(card_id);
CREATE INDEX IF NOT EXISTS idx_expense_payments_expense ON expense_payments(expense_id);
CREATE INDEX IF NOT EXISTS idx_variable_expenses_spent ON variable_expenses(spent_on);
CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status);

INSERT OR IGNORE INTO checking_account (id, balance, updated_at) VALUES (1, 0, strftime('%Y-%m-%dT%H:%M:%SZ','now'));
INSERT OR IGNORE INTO savings_account (id, balance, target, updated_at) VALUES (1, 0, 0, strftime('%Y-%m-%dT%H:%M:%SZ','now'));
`
