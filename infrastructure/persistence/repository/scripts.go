package repository

// Server-side scripts for the two membership mutations that must be
// indivisible. Client-orchestrated read-modify-write against a shared store
// cannot be made atomic from outside, so the cardinality check and the claim
// run inside one script execution.

// joinScript claims a connected slot.
//
// KEYS[1]: connected:{roomId}
// ARGV[1]: token
// ARGV[2]: max users
//
// Returns 1 when the token holds a slot (fresh claim or already a member),
// 0 when the room is full. A full room is left untouched.
const joinScript = `
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
  return 1
end
local count = redis.call('SCARD', KEYS[1])
if count >= tonumber(ARGV[2]) then
  return 0
end
redis.call('SADD', KEYS[1], ARGV[1])
return 1
`

// leaveScript moves a token into the grace set and arms its expiry.
//
// KEYS[1]: connected:{roomId}
// KEYS[2]: leaving:{roomId}
// ARGV[1]: token
// ARGV[2]: grace TTL in seconds
//
// Always returns 1: moving a token that was never connected is valid, which
// keeps leave signals from unreliable paths (page-unload beacons) idempotent.
const leaveScript = `
redis.call('SREM', KEYS[1], ARGV[1])
redis.call('SADD', KEYS[2], ARGV[1])
redis.call('EXPIRE', KEYS[2], ARGV[2])
return 1
`

// storeKeyScript writes a public-key field onto the meta hash only while the
// room is alive. A plain HSET after an existence check could resurrect an
// expired meta key with no TTL.
//
// KEYS[1]: meta:{roomId}
// ARGV[1]: field name
// ARGV[2]: public key material
//
// Returns 1 on write, 0 when the room no longer exists.
const storeKeyScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
return 1
`
