package mysql

const upsertPropertySQL = `
INSERT INTO properties
  (id, title, description, price, location, amenities, images, owner_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  title       = VALUES(title),
  description = VALUES(description),
  price       = VALUES(price),
  location    = VALUES(location),
  amenities   = VALUES(amenities),
  images      = VALUES(images),
  owner_id    = VALUES(owner_id),
  updated_at  = CURRENT_TIMESTAMP
`

const propertyColumns = `id, title, description, price, location, amenities, images, owner_id, created_at`

const getPropertySQL = `
SELECT ` + propertyColumns + `
FROM properties
WHERE id = ?
`

const listPropertiesSQL = `
SELECT ` + propertyColumns + `
FROM properties
ORDER BY created_at DESC, id DESC
LIMIT ?
`

// searchPrefix is completed by buildSearch with the WHERE clause derived
// from the active filter dimensions.
const searchPrefix = `
SELECT ` + propertyColumns + `
FROM properties
`

const searchSuffix = `
ORDER BY created_at DESC, id DESC
LIMIT ?`
