package schema

// SchemaVersion is the current record layout version, stamped into encoded events.
const SchemaVersion uint16 = 1
