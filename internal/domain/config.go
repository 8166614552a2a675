package domain

// KeyPrefix namespaces every key audiodex writes to a shared key-value store.
const KeyPrefix = "audiodex:"
