package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sales (
    file_path            TEXT NOT NULL,
    line                 INTEGER NOT NULL,
    product              TEXT NOT NULL,
    quantity             TEXT NOT NULL,
    sale_date            TEXT NOT NULL,
    PRIMARY KEY (file_path, line)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    schema_key           TEXT NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sales_date ON sales(sale_date);
CREATE INDEX IF NOT EXISTS idx_sales_product ON sales(product);
`
